package versions

import "fmt"

// ValidationError means the request cannot be applied to the current
// version. Nothing was written.
type ValidationError struct {
	Message string
	// Index is the offending patch position, or -1 when not patch specific.
	Index int
	Cause error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Index >= 0 {
		msg = fmt.Sprintf("patch %d: %s", e.Index, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NotFoundError reports an unknown resume or version.
type NotFoundError struct {
	ResumeID string
	Version  int
}

func (e *NotFoundError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("resume %s has no version %d", e.ResumeID, e.Version)
	}
	return fmt.Sprintf("resume not found: %s", e.ResumeID)
}

// VersionConflictError means the caller's view of the resume is stale.
// Nothing was written; re-read and retry.
type VersionConflictError struct {
	ResumeID string
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	if e.Actual > 0 {
		return fmt.Sprintf("version conflict on %s: expected %d, current is %d", e.ResumeID, e.Expected, e.Actual)
	}
	return fmt.Sprintf("version conflict on %s: version %d was committed concurrently", e.ResumeID, e.Expected)
}

func invalid(index int, format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Index: index}
}
