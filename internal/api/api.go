// Package api provides functions for fetching the Mullvad relay list.
package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/logging"
	"github.com/Ch00k/mullvad-speed/internal/relays"
)

const (
	// DefaultRelaysURL is the public relay directory
	DefaultRelaysURL = "https://api.mullvad.net/www/relays/all/"

	defaultTimeout = 5 * time.Second
	defaultVersion = "dev"

	// maxBodySize bounds the relay list download; the real document is a few hundred KB
	maxBodySize = 16 << 20
)

// Client encapsulates the HTTP client for fetching the relay list
type Client struct {
	httpClient *http.Client
	url        string
	version    string
	logLevel   logging.LogLevel
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithURL sets a custom relay list URL
func WithURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

// WithTimeout sets a custom timeout for HTTP requests
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithVersion sets the version string for the User-Agent header
func WithVersion(version string) ClientOption {
	return func(c *Client) {
		c.version = version
	}
}

// WithLogLevel sets the log level for the client
func WithLogLevel(logLevel logging.LogLevel) ClientOption {
	return func(c *Client) {
		c.logLevel = logLevel
	}
}

// NewClient creates a new API client with the given options
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		url:      DefaultRelaysURL,
		version:  defaultVersion,
		logLevel: logging.LogLevelError,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// FetchError is returned when the relay list cannot be retrieved or parsed
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch relay list (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch relay list: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchServers downloads and validates the relay list. It makes a single
// attempt; every failure is reported as a *FetchError.
func (c *Client) FetchServers(ctx context.Context) ([]relays.Server, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		if c.logLevel <= logging.LogLevelError {
			log.Printf("Failed to create HTTP request: %v", err)
		}
		return nil, &FetchError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("mullvad-speed/%s", c.version))

	if c.logLevel <= logging.LogLevelDebug {
		log.Printf("Sending GET request to %s", c.url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logLevel <= logging.LogLevelError {
			log.Printf("HTTP request failed: %v", err)
		}
		return nil, &FetchError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if c.logLevel <= logging.LogLevelDebug {
		log.Printf("Received HTTP %d response", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		if c.logLevel <= logging.LogLevelError {
			log.Printf("Unexpected HTTP status code: %d", resp.StatusCode)
		}
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		if c.logLevel <= logging.LogLevelError {
			log.Printf("Unexpected content type: %s (expected application/json)", contentType)
		}
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected content-type: %s (expected application/json)", contentType),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		if c.logLevel <= logging.LogLevelError {
			log.Printf("Failed to read response body: %v", err)
		}
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(body) > maxBodySize {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body exceeds %d bytes", maxBodySize),
		}
	}

	if c.logLevel <= logging.LogLevelInfo {
		log.Printf("Read %d bytes from relay list", len(body))
	}

	servers, err := relays.ParseServersWithLogLevel(body, c.logLevel)
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: err}
	}

	return servers, nil
}
