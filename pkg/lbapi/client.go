// Package lbapi provides a GraphQL client for the load balancer api
package lbapi

import (
	"context"
	"net/http"
	"time"

	"github.com/shurcooL/graphql"
)

const defaultTimeout = 5 * time.Second

// Client queries the load balancer api at a single GraphQL endpoint
type Client struct {
	client     *graphql.Client
	httpClient *http.Client
	token      string
}

// Option is a functional configuration option
type Option func(c *Client)

// WithHTTPClient sets the http client used for queries. The client is copied, never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBearerToken authenticates every query with the given bearer token
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new lb api client
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient

	if c.token != "" {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}

		hc.Transport = &bearerTransport{token: c.token, base: base}
	}

	c.httpClient = &hc
	c.client = graphql.NewClient(url, c.httpClient)

	return c
}

// GetLoadBalancer returns a load balancer by id
func (c *Client) GetLoadBalancer(ctx context.Context, id string) (*GetLoadBalancer, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	vars := map[string]interface{}{
		"id": graphql.ID(id),
	}

	var lb GetLoadBalancer
	if err := c.client.Query(ctx, &lb, vars); err != nil {
		return nil, err
	}

	if lb.LoadBalancer.ID == "" {
		return nil, ErrLBNotFound
	}

	return &lb, nil
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)

	return t.base.RoundTrip(r)
}
