package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-guard/internal/engine"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/rewriting"
	"github.com/jonathan/resume-guard/internal/schemas"
	"github.com/jonathan/resume-guard/internal/upstream"
	"github.com/jonathan/resume-guard/internal/versions"
)

// ErrValidation indicates a malformed request body or parameter.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		errValidation *ErrValidation
		inputErr      *engine.InputError
		schemaErr     *schemas.ValidationError
		fieldErrs     validator.ValidationErrors
		notFound      *versions.NotFoundError
		noResume      *overrides.ResumeNotFoundError
		noRole        *engine.RoleNotFoundError
		conflict      *versions.VersionConflictError
		ambiguous     *engine.AmbiguousRoleError
		applyErr      *versions.ValidationError
		overrideErr   *overrides.ValidationError
		claimErr      *rewriting.ClaimError
		unprocessable *engine.UnprocessableError
		unavailable   *engine.UnavailableError
		upstreamErr   *upstream.Error
	)
	switch {
	case errors.As(err, &errValidation), errors.As(err, &inputErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &noResume), errors.As(err, &noRole):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &ambiguous):
		return http.StatusConflict
	case errors.As(err, &applyErr), errors.As(err, &overrideErr),
		errors.As(err, &claimErr), errors.As(err, &unprocessable):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstreamErr):
		if upstream.IsTimeout(upstreamErr) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
