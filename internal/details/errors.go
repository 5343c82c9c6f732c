package details

import "errors"

var (
	// ErrEmptyID is returned when the component is created without an id
	ErrEmptyID = errors.New("load balancer id is required")
	// ErrMissingFetcher is returned when no fetcher is configured
	ErrMissingFetcher = errors.New("at least one fetcher is required")
	// ErrInvalidInterval is returned when the poll interval is not positive
	ErrInvalidInterval = errors.New("poll interval must be greater than zero")
	// ErrAlreadyStarted is returned when Start is called on a running component
	ErrAlreadyStarted = errors.New("details already started")
	// ErrStopped is returned when Start is called after Stop
	ErrStopped = errors.New("details already stopped")
)
