package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default timeout for fetching a registry.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the maximum accepted size of a registry document.
	DefaultMaxBodySize = 16 << 20
)

// UserAgent is the default user agent sent with requests.
var UserAgent = "rdapboot"

// Validators are the revalidation token exchanged with the origin.
type Validators struct {
	ETag         string
	LastModified string
}

// IsZero returns whether no validator is set.
func (v Validators) IsZero() bool {
	return v.ETag == "" && v.LastModified == ""
}

// Response is the result of a fetch.
type Response struct {
	// NotModified is set if the origin confirmed that the document identified
	// by the supplied validators is still current. Body is empty then.
	NotModified bool
	Body        []byte
	Validators  Validators
}

// Transport fetches registry documents.
// Timeouts and cancellation are handled by the transport.
type Transport interface {
	Fetch(ctx context.Context, url string, validators Validators) (*Response, error)
}

// HTTPTransport fetches documents via HTTP(S) GET requests.
type HTTPTransport struct {
	Client      *http.Client
	UserAgent   string
	MaxBodySize int64
}

// NewHTTPTransport returns a transport with the given request timeout.
func NewHTTPTransport(timeout time.Duration, userAgent string) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = UserAgent
	}
	return &HTTPTransport{
		Client: &http.Client{
			Timeout: timeout,
		},
		UserAgent:   userAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// Fetch issues a (conditional) GET request.
func (t *HTTPTransport) Fetch(ctx context.Context, url string, validators Validators) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	if validators.ETag != "" {
		req.Header.Set("If-None-Match", validators.ETag)
	}
	if validators.LastModified != "" {
		req.Header.Set("If-Modified-Since", validators.LastModified)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed GET request to %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	received := Validators{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if validators.IsZero() {
			return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		// Keep each previous validator the origin did not send again.
		if received.ETag == "" {
			received.ETag = validators.ETag
		}
		if received.LastModified == "" {
			received.LastModified = validators.LastModified
		}
		return &Response{
			NotModified: true,
			Validators:  received,
		}, nil

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	maxSize := t.MaxBodySize
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if int64(len(body)) > maxSize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxSize)
	}

	return &Response{
		Body:       body,
		Validators: received,
	}, nil
}
