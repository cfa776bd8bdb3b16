package endpoint

import (
	"github.com/go-foreman/ordersaga/saga"
)

// Router is a registry of Endpoints per channel. Each channel can have multiple endpoints assigned.
type Router interface {
	// RegisterEndpoint assigns channels to an endpoint
	RegisterEndpoint(endpoint Endpoint, channels ...saga.Channel)
	// Route returns a list of endpoints that were assigned to a channel
	Route(channel saga.Channel) []Endpoint
}

// NewRouter creates new instance of Router with default implementation
func NewRouter() Router {
	return &router{
		routes: make(map[saga.Channel][]Endpoint),
	}
}

type router struct {
	routes map[saga.Channel][]Endpoint
}

func (r *router) RegisterEndpoint(endpoint Endpoint, channels ...saga.Channel) {
	for _, channel := range channels {
		registered := false
		for _, e := range r.routes[channel] {
			if e.Name() == endpoint.Name() {
				registered = true
				break
			}
		}

		if !registered {
			r.routes[channel] = append(r.routes[channel], endpoint)
		}
	}
}

func (r router) Route(channel saga.Channel) []Endpoint {
	if routes, ok := r.routes[channel]; ok {
		return routes
	}

	return []Endpoint{}
}
