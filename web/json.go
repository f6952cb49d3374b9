// Copyright 2026 The Tracklist Authors.
// All rights reserved.

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
)

// FetchJSON sends a GET request for url with the supplied extra headers and
// unmarshals the JSON response into dst.
// The request is sent using the client attached to ctx via WithClient.
func FetchJSON(ctx context.Context, url string, hdr http.Header, dst interface{}) error {
	log.Info("Fetching JSON", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, vals := range hdr {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := GetClient(ctx).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %v: %v", resp.StatusCode, resp.Status)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(dst)
}
