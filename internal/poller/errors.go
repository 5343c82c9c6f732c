package poller

import "errors"

var (
	// ErrMissingFunc is returned when a poller is created without a fetch or result func
	ErrMissingFunc = errors.New("poller requires a fetch and a result func")
	// ErrInvalidInterval is returned when the poll interval is not positive
	ErrInvalidInterval = errors.New("poll interval must be greater than zero")
)
