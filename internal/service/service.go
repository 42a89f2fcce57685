// Package service maps each marketplace operation to one HTTP call.
// Failures are whatever the transport surfaced, returned unchanged.
package service

import (
	"context"
	"net/url"

	"wastemarket/mobile/internal/transport"
)

// Requester is the subset of *transport.Client the services need.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string, out any) error
	PostMultipart(ctx context.Context, path string, form transport.Multipart, out any) error
}

func resource(parts ...string) string {
	path := ""
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}
