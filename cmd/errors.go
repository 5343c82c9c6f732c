package cmd

import "errors"

var (
	// ErrIDRequired is returned when no load balancer id is configured
	ErrIDRequired = errors.New("load balancer id is required")
	// ErrLBAPIURLRequired is returned when the load balancer api url is missing
	ErrLBAPIURLRequired = errors.New("load balancer api url is required")
	// ErrNATSAuthRequired is returned when a nats url is set without credentials
	ErrNATSAuthRequired = errors.New("nats credentials are required when a nats url is set")
	// ErrPollIntervalInvalid is returned when the poll interval is not positive
	ErrPollIntervalInvalid = errors.New("poll interval must be greater than zero")
)
