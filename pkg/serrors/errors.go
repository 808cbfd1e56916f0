package serrors

import "fmt"

// Base is a coded error suitable for API payloads: a stable machine-readable
// code plus a human-readable message.
type Base struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Base) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message string) *Base {
	return &Base{Code: code, Message: message}
}

// ValidationErrors maps a field name to a violation description.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(v))
}
