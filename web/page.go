// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package web fetches and queries HTML pages.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
)

// maxPageBytes limits the size of pages read by FetchPage.
const maxPageBytes = 8 << 20

// Page represents a parsed HTML page.
type Page struct {
	Root *html.Node
}

// FetchPage fetches and parses the HTML page at the supplied URL.
// The request is sent using the client attached to ctx via WithClient.
func FetchPage(ctx context.Context, url string) (*Page, error) {
	log.Info("Fetching page", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := GetClient(ctx).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %v: %v", resp.StatusCode, resp.Status)
	}
	log.Debug("Parsing response", "url", url, "bytes", resp.ContentLength)
	return ParsePage(io.LimitReader(resp.Body, maxPageBytes))
}

// ParsePage parses an HTML page from r.
func ParsePage(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Page{root}, nil
}

// Query returns the first node matched by the supplied CSS selector.
// The returned result has a non-nil Err field if no node was matched.
func (p *Page) Query(query string) QueryResult {
	sel, err := cascadia.Parse(query)
	if err != nil {
		return QueryResult{nil, err}
	}
	node := cascadia.Query(p.Root, sel)
	if node == nil {
		return QueryResult{nil, fmt.Errorf("%q not found", query)}
	}
	return QueryResult{node, nil}
}

// QueryResult contains the result of a call to Query.
type QueryResult struct {
	Node *html.Node
	Err  error
}

// Attr returns the first occurrence of the named attribute.
// An error is returned if the attribute isn't present.
func (res QueryResult) Attr(attr string) (string, error) {
	if res.Err != nil {
		return "", res.Err
	}
	for _, a := range res.Node.Attr {
		if a.Key == attr {
			return a.Val, nil
		}
	}
	return "", errors.New("attribute not found")
}

// Text returns the whitespace-collapsed text content in and under the node.
func (res QueryResult) Text() (string, error) {
	if res.Err != nil {
		return "", res.Err
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(res.Node)
	return strings.Join(strings.Fields(sb.String()), " "), nil
}
