package engine

import (
	"fmt"
	"strings"
)

// InputError rejects a malformed request before any work is done.
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// UnprocessableError means a well-formed request does not fit the stored
// resume, e.g. a bullet index past the end of a role.
type UnprocessableError struct {
	Message string
}

func (e *UnprocessableError) Error() string {
	return e.Message
}

// RoleNotFoundError reports a role selector that matched nothing.
type RoleNotFoundError struct {
	ResumeID string
	Selector string
}

func (e *RoleNotFoundError) Error() string {
	return fmt.Sprintf("no role in resume %s matches %s", e.ResumeID, e.Selector)
}

// AmbiguousRoleError reports a company+dates selector that matched several roles.
type AmbiguousRoleError struct {
	RoleIDs []string
}

func (e *AmbiguousRoleError) Error() string {
	return fmt.Sprintf("multiple roles matched: %s", strings.Join(e.RoleIDs, ", "))
}

// UnavailableError means an optional collaborator is not configured.
type UnavailableError struct {
	Feature string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Feature)
}
