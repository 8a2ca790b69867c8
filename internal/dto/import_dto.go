package dto

// ImportRowError reports a single failed row from a bulk import.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a bulk import run. Rows are processed
// independently: a failed row never rolls back the rows before it.
type ImportResult struct {
	TotalRows int              `json:"total_rows"`
	Created   int              `json:"created"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors,omitempty"`
}
