package lbapi

// Resource is an opaque load balancer or kube resource record as returned by the api
type Resource map[string]interface{}

// Status returns the "status" field of the resource, if any
func (r Resource) Status() string {
	s, _ := r["status"].(string)

	return s
}
