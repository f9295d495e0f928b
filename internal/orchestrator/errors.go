package orchestrator

import "fmt"

// ValidationError rejects a request before any analysis starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request is the wire shape accepted by Run. Text is a pointer so a
// missing field can be told apart from an empty one.
type Request struct {
	Text *string `json:"text"`
}

// Validate rejects a missing or empty text. Whitespace-only text is a
// valid, empty document.
func (r Request) Validate() error {
	if r.Text == nil {
		return &ValidationError{Field: "text", Reason: "is required"}
	}
	if *r.Text == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	return nil
}
