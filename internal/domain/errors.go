package domain

import "errors"

// Error kinds surfaced to callers. Wrap them with fmt.Errorf("%w: ...") to
// add detail; callers classify with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
