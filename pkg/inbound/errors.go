package inbound

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized   = errors.New("inbound: invalid webhook secret")
	ErrBadPayload     = errors.New("inbound: bad payload")
	ErrUnknownContact = errors.New("inbound: unknown contact")
	ErrRejected       = errors.New("inbound: transition rejected")
	ErrStore          = errors.New("inbound: store failure")
	ErrFollowUp       = errors.New("inbound: follow-up failed")
)

// statusError carries the HTTP status a failure maps to.
type statusError struct {
	err  error
	code int
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func withStatus(code int, err error) error {
	return &statusError{err: err, code: code}
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return http.StatusInternalServerError
}
