package viewmodels

type ContactListItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Instagram string   `json:"instagram"`
	Followers *int64   `json:"followers"`
	Tags      []string `json:"tags"`
	Bio       string   `json:"bio"`
	Notes     string   `json:"notes"`
}

type ImportSession struct {
	ID         string            `json:"id"`
	Stage      string            `json:"stage"`
	Headers    []string          `json:"headers"`
	Mapping    map[string]string `json:"mapping"`
	RowCount   int               `json:"row_count"`
	CleanCount int               `json:"clean_count"`
	FailedRows []*FailedRow      `json:"failed_rows"`
	Duplicates []*Duplicate      `json:"duplicates"`
}

type FailedRow struct {
	RowIndex int          `json:"row_index"`
	Cells    []string     `json:"cells"`
	Errors   []FieldError `json:"errors"`
}

type FieldError struct {
	Header  string `json:"header"`
	Message string `json:"message"`
}

type Duplicate struct {
	Index      int              `json:"index"`
	Resolution string           `json:"resolution"`
	Existing   *ContactListItem `json:"existing"`
	Incoming   *ContactListItem `json:"incoming"`
}
