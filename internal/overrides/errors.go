package overrides

import "fmt"

// ValidationError rejects an override record before anything is stored.
type ValidationError struct {
	Message string
	Index   int
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("override %d: %s: %v", e.Index, e.Message, e.Cause)
	}
	return fmt.Sprintf("override %d: %s", e.Index, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ResumeNotFoundError is returned when overrides target an unknown resume.
type ResumeNotFoundError struct {
	ResumeID string
}

func (e *ResumeNotFoundError) Error() string {
	return fmt.Sprintf("resume not found: %s", e.ResumeID)
}
