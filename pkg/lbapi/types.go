package lbapi

import "errors"

var (
	// ErrEmptyID is returned when a query is requested without an id
	ErrEmptyID = errors.New("load balancer id is empty")
	// ErrLBNotFound is returned when the query returns no load balancer
	ErrLBNotFound = errors.New("load balancer not found")
)

// GetLoadBalancer is the loadBalancer query and its response
type GetLoadBalancer struct {
	LoadBalancer struct {
		ID    string
		Name  string
		Ports struct {
			Edges []struct {
				Node struct {
					Name   string
					Number int64
					Pools  []struct {
						Name     string
						Protocol string
						Origins  struct {
							Edges []struct {
								Node struct {
									Name       string
									Target     string
									PortNumber int64
									Active     bool
								}
							}
						}
					}
				}
			}
		}
	} `graphql:"loadBalancer(id: $id)"`
}

// Resource flattens the query response into a plain record keyed like the REST api
func (q *GetLoadBalancer) Resource() map[string]interface{} {
	lb := q.LoadBalancer

	ports := make([]interface{}, 0, len(lb.Ports.Edges))

	for _, pe := range lb.Ports.Edges {
		pools := make([]interface{}, 0, len(pe.Node.Pools))

		for _, p := range pe.Node.Pools {
			origins := make([]interface{}, 0, len(p.Origins.Edges))

			for _, oe := range p.Origins.Edges {
				origins = append(origins, map[string]interface{}{
					"name":   oe.Node.Name,
					"target": oe.Node.Target,
					"port":   oe.Node.PortNumber,
					"active": oe.Node.Active,
				})
			}

			pools = append(pools, map[string]interface{}{
				"name":     p.Name,
				"protocol": p.Protocol,
				"origins":  origins,
			})
		}

		ports = append(ports, map[string]interface{}{
			"name":   pe.Node.Name,
			"number": pe.Node.Number,
			"pools":  pools,
		})
	}

	return map[string]interface{}{
		"id":    lb.ID,
		"name":  lb.Name,
		"ports": ports,
	}
}
