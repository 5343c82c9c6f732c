// Package lbapi contains the REST client used to fetch load balancers and kube resources by id
package lbapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	apiReadyRetryLimit = 10
	apiReadyRetrySleep = 1 * time.Second
)

const (
	loadBalancersPath = "load_balancers"
	kubeResourcesPath = "kube_resources"
)

type httpClient interface {
	Do(req *retryablehttp.Request) (*http.Response, error)
}

// Client is the REST client for the load balancer API
type Client struct {
	client  httpClient
	baseURL string
	token   string
	logger  *zap.SugaredLogger
}

// Option is a functional configuration option
type Option func(c *Client)

// NewClient returns a retrying REST client rooted at url
func NewClient(url string, opts ...Option) *Client {
	retryCli := retryablehttp.NewClient()
	retryCli.RetryMax = 3
	retryCli.HTTPClient.Timeout = time.Second * 5
	retryCli.Logger = nil

	c := &Client{
		baseURL: strings.TrimSuffix(url, "/"),
		client:  retryCli,
		logger:  zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithRetries sets the maximum number of retries per request
func WithRetries(r int) Option {
	return func(c *Client) {
		if rc, ok := c.client.(*retryablehttp.Client); ok {
			rc.RetryMax = r
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if rc, ok := c.client.(*retryablehttp.Client); ok {
			rc.HTTPClient.Timeout = timeout
		}
	}
}

// WithToken sets the api token sent with every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the client logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// GetLoadBalancer returns the load balancer with the given id
func (c *Client) GetLoadBalancer(ctx context.Context, id string) (Resource, error) {
	return c.get(ctx, loadBalancersPath, id)
}

// GetKubeResource returns the kube resource with the given id
func (c *Client) GetKubeResource(ctx context.Context, id string) (Resource, error) {
	return c.get(ctx, kubeResourcesPath, id)
}

func (c *Client) get(ctx context.Context, collection, id string) (Resource, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, collection, id)

	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		res := Resource{}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", collection, id, err)
		}

		if res == nil {
			return nil, fmt.Errorf("empty %s %s body: %w", collection, id, ErrLBHTTPError)
		}

		return res, nil
	case http.StatusNotFound:
		return nil, ErrLBHTTPNotFound
	case http.StatusUnauthorized:
		return nil, ErrLBHTTPUnauthorized
	case http.StatusInternalServerError:
		return nil, ErrLBHTTPError
	default:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read resp body: %w", ErrLBHTTPError)
		}

		return nil, fmt.Errorf("StatusCode (%d) - %s: %w", resp.StatusCode, string(b), ErrLBHTTPError)
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf(`SGAPI token="%s"`, c.token))
	}

	return req, nil
}

// apiIsReady returns true when a 200 is returned for a GET request to the base url
func (c *Client) apiIsReady(ctx context.Context) bool {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// likely connection timeout
		return false
	}

	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// WaitForReady checks if the API is returning 200 and retries if not
func (c *Client) WaitForReady(ctx context.Context) error {
	for i := 0; i < apiReadyRetryLimit; i++ {
		if c.apiIsReady(ctx) {
			c.logger.Info("load balancer api is ready")
			return nil
		}

		c.logger.Info("waiting for load balancer api to become ready")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(apiReadyRetrySleep):
		}
	}

	return ErrAPINotReady
}
