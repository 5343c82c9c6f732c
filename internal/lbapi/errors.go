package lbapi

import "errors"

var (
	// ErrLBHTTPUnauthorized is returned when the request is not authorized
	ErrLBHTTPUnauthorized = errors.New("load balancer api received unauthorized request")
	// ErrLBHTTPNotFound is returned when the requested resource does not exist
	ErrLBHTTPNotFound = errors.New("load balancer api resource not found")
	// ErrLBHTTPError is returned when the http response is an error
	ErrLBHTTPError = errors.New("load balancer api http error")
	// ErrEmptyID is returned when a fetch is requested without an id
	ErrEmptyID = errors.New("resource id is empty")
	// ErrAPINotReady is returned when the api did not become ready in time
	ErrAPINotReady = errors.New("load balancer api is not ready")
)
