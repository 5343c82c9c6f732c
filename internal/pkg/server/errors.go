package server

import "errors"

var (
	// ErrUnknownID is returned when a request targets an id this server does not poll
	ErrUnknownID = errors.New("unknown load balancer id")
	// ErrInvalidBody is returned when a request body cannot be decoded
	ErrInvalidBody = errors.New("invalid request body")
)
