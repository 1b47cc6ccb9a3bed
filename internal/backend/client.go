// Package backend is the HTTP client of the face-swap processing backend.
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/logger"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    *logger.Logger
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *resty.Client
	log     *logger.Logger
}

// New creates a backend client for the given base address.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: unsupported scheme", opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = constants.BackendTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "faceswap"
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	log = log.Component("backend")

	base := strings.TrimRight(opts.BaseURL, "/")
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetLogger(log.Entry)

	return &Client{baseURL: base, http: client, log: log}, nil
}

// BaseURL returns the backend address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveURL turns a backend-relative path such as an output URL into an
// absolute address. Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(rel string) string {
	if u, err := url.Parse(rel); err == nil && u.IsAbs() {
		return rel
	}
	return c.baseURL + "/" + strings.TrimLeft(rel, "/")
}

// APIError is returned when the backend answers with a non-success status.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// checkResponse converts an error response into an *APIError.
func checkResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	return &APIError{StatusCode: resp.StatusCode(), Detail: errorDetail(resp.Body())}
}

// errorDetail extracts FastAPI's "detail" from an error body, falling back to
// the raw body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil {
			return text
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}
