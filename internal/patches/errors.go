package patches

import (
	"errors"
	"fmt"
)

// ErrNoEvidence is returned when a gated truth mode meets a patch with no
// evidence that is not backed by an override.
var ErrNoEvidence = errors.New("patch has no evidence and is not backed by an override")

// OpError reports a patch operation that does not fit the document.
type OpError struct {
	Message string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("invalid patch operation: %s", e.Message)
}
