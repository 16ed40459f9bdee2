// Package gateway resolves external payment confirmations into ticket
// references. Each supported gateway redirects the buyer back with its own
// query-string convention; the registry turns an inbound URL into the
// single piece the reconciler needs. Request signing and webhook signature
// checks stay with the outer collaborators.
package gateway

import (
	"errors"
	"net/url"
)

var ErrUnknownGateway = errors.New("unknown gateway")

// Gateway identifies one payment provider's return convention.
type Gateway interface {
	Name() string

	// ParseReturn extracts the ticket reference from the provider's
	// redirect parameters. ok is false when the parameters do not encode
	// a successful payment for this provider.
	ParseReturn(params url.Values) (ref string, ok bool)
}

// MercadoPago sends the buyer back with collection_status (or status) set
// to "approved" and the original reference in external_reference.
type MercadoPago struct{}

func (MercadoPago) Name() string { return "mercadopago" }

func (MercadoPago) ParseReturn(params url.Values) (string, bool) {
	status := params.Get("collection_status")
	if status == "" {
		status = params.Get("status")
	}
	if status != "approved" {
		return "", false
	}

	ref := params.Get("external_reference")
	return ref, ref != ""
}

// Wompi sends back a transaction id plus the original reference.
type Wompi struct{}

func (Wompi) Name() string { return "wompi" }

func (Wompi) ParseReturn(params url.Values) (string, bool) {
	if params.Get("id") == "" {
		return "", false
	}

	ref := params.Get("reference")
	return ref, ref != ""
}

// Registry holds the enabled gateways. Which gateways are live is explicit
// configuration, not parallel code paths.
type Registry struct {
	gateways []Gateway
}

// NewRegistry builds a registry from enabled gateway names; unknown names
// are rejected so a config typo fails at startup rather than silently
// dropping a provider.
func NewRegistry(enabled []string) (*Registry, error) {
	var gws []Gateway

	for _, name := range enabled {
		switch name {
		case "mercadopago":
			gws = append(gws, MercadoPago{})
		case "wompi":
			gws = append(gws, Wompi{})
		default:
			return nil, errors.Join(ErrUnknownGateway, errors.New(name))
		}
	}

	return &Registry{gateways: gws}, nil
}

// Resolve tries each enabled gateway against the redirect parameters and
// returns the first match.
func (r *Registry) Resolve(params url.Values) (ref, gatewayName string, ok bool) {
	for _, gw := range r.gateways {
		if ref, ok := gw.ParseReturn(params); ok {
			return ref, gw.Name(), true
		}
	}

	return "", "", false
}

// Get returns the named gateway when enabled.
func (r *Registry) Get(name string) (Gateway, bool) {
	for _, gw := range r.gateways {
		if gw.Name() == name {
			return gw, true
		}
	}

	return nil, false
}
