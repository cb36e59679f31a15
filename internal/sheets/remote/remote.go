// Package remote fetches source documents over HTTP.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	ports "groupdash/internal/sheets"
)

// maxDocumentBytes bounds a single document body.
const maxDocumentBytes = 32 << 20

type Source struct {
	client    *http.Client
	eventsURL string
	groupsURL string
}

var _ ports.Source = (*Source)(nil)

// New returns a source that GETs <baseURL>/events.csv and
// <baseURL>/enriched_groups.csv. A nil client gets a pooled default with
// the given timeout.
func New(baseURL string, client *http.Client, timeout time.Duration) (*Source, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if client == nil {
		client = NewHTTPClientWithPooling(timeout)
	}
	return &Source{
		client:    client,
		eventsURL: base.JoinPath(ports.EventsDocument).String(),
		groupsURL: base.JoinPath(ports.GroupsDocument).String(),
	}, nil
}

// NewHTTPClientWithPooling creates an HTTP client with connection pooling,
// proper timeouts, and keep-alive settings.
func NewHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		// Connection pooling settings
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		MaxConnsPerHost:     8,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func (s *Source) ReadEvents(ctx context.Context) ([]byte, error) {
	return s.fetch(ctx, ports.EventsDocument, s.eventsURL)
}

func (s *Source) ReadGroups(ctx context.Context) ([]byte, error) {
	return s.fetch(ctx, ports.GroupsDocument, s.groupsURL)
}

func (s *Source) fetch(ctx context.Context, name, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to load %s: %w", name, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Failed to load %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("Failed to load %s: %d: %w", name, resp.StatusCode, ports.ErrSourceNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("Failed to load %s: %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Failed to load %s: %w", name, err)
	}
	if len(body) > maxDocumentBytes {
		return nil, fmt.Errorf("Failed to load %s: document exceeds %d bytes", name, maxDocumentBytes)
	}

	slog.DebugContext(ctx, "Fetched source document",
		"document", name,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds())
	return body, nil
}
