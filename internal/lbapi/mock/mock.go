// Package mock provides a stand-in for the retrying http client used by lbapi
package mock

import (
	"net/http"
	"sync/atomic"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPClient is the mock http client
type HTTPClient struct {
	DoFunc func(req *retryablehttp.Request) (*http.Response, error)

	calls int32
}

// Do records the call and delegates to DoFunc
func (c *HTTPClient) Do(req *retryablehttp.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)

	return c.DoFunc(req)
}

// Calls returns how many requests were sent through the client
func (c *HTTPClient) Calls() int {
	return int(atomic.LoadInt32(&c.calls))
}
