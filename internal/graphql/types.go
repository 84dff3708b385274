// Package graphql provides the HTTP transport that carries migas requests
// to the GraphQL endpoint.
package graphql

import "context"

// Transport sends a GraphQL request and returns the HTTP status code and the
// decoded response payload. The payload is a map[string]any when the body
// is a JSON object and the raw body string otherwise. err is non-nil only
// when no response was received.
type Transport interface {
	Do(ctx context.Context, endpoint, query string) (status int, payload any, err error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, endpoint, query string) (int, any, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, endpoint, query string) (int, any, error) {
	return f(ctx, endpoint, query)
}
