package contact

import "errors"

var (
	ErrNotFound   = errors.New("contact not found")
	ErrEmailTaken = errors.New("email already exists")
)
