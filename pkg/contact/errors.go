package contact

import "errors"

var (
	ErrNotFound       = errors.New("contact: not found")
	ErrDuplicateEmail = errors.New("contact: email already exists")
	ErrInvalidContact = errors.New("contact: invalid contact")
	ErrPersist        = errors.New("contact: failed to persist")
	ErrQuery          = errors.New("contact: query failed")
	ErrStale          = errors.New("contact: state changed since it was read")
)
