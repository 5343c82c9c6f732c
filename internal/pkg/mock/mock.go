// Package mock contains hand-written stand-ins for the services the details component talks to
package mock

import (
	"context"

	"go.infratographer.com/loadbalancer-details/internal/lbapi"
)

// LBAPIClient mock client
type LBAPIClient struct {
	DoGetLoadBalancer func(ctx context.Context, id string) (lbapi.Resource, error)
	DoGetKubeResource func(ctx context.Context, id string) (lbapi.Resource, error)
}

func (c LBAPIClient) GetLoadBalancer(ctx context.Context, id string) (lbapi.Resource, error) {
	return c.DoGetLoadBalancer(ctx, id)
}

func (c LBAPIClient) GetKubeResource(ctx context.Context, id string) (lbapi.Resource, error) {
	return c.DoGetKubeResource(ctx, id)
}

// Modal mock modal service
type Modal struct {
	DoOpenSystemModal func(ctx context.Context, message string) error
}

func (m *Modal) OpenSystemModal(ctx context.Context, message string) error {
	return m.DoOpenSystemModal(ctx, message)
}

// Navigator mock navigation service
type Navigator struct {
	DoNavigate func(ctx context.Context, path string) error
}

func (n *Navigator) Navigate(ctx context.Context, path string) error {
	return n.DoNavigate(ctx, path)
}
