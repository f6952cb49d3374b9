// Copyright 2026 The Tracklist Authors.
// All rights reserved.

package web

import (
	"context"
	"net/http"
)

type clientKey struct{}

// WithClient returns a context derived from ctx with the supplied *http.Client.
// Tests use this to direct requests at local servers.
func WithClient(ctx context.Context, cl *http.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, cl)
}

// GetClient returns the *http.Client previously attached to ctx via WithClient.
// If no client was attached, http.DefaultClient is returned.
func GetClient(ctx context.Context) *http.Client {
	if cl, ok := ctx.Value(clientKey{}).(*http.Client); ok && cl != nil {
		return cl
	}
	return http.DefaultClient
}
