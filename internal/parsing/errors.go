package parsing

import "fmt"

// ParseError represents an error parsing a model response
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// UnsupportedFileError is returned by ExtractText for unknown file kinds.
type UnsupportedFileError struct {
	Kind string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.Kind)
}
