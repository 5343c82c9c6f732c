package pubsub

import "errors"

var (
	// ErrNATSConnClosed is returned when the nats connection is missing or closed
	ErrNATSConnClosed = errors.New("nats connection is closed")
)
