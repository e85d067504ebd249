package tools

import "fmt"

// MissingFieldError reports a required field absent from a structured
// response. It is only returned when Options.StrictFields is set; otherwise
// the field's documented default is used.
type MissingFieldError struct {
	Tool  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: response is missing required field %q", e.Tool, e.Field)
}
