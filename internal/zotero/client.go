// ABOUTME: Zotero Web API v3 client core
// ABOUTME: Holds credentials and library coordinates, issues HTTP requests
package zotero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBaseURL is the public Zotero Web API endpoint.
	DefaultBaseURL = "https://api.zotero.org"

	apiVersion     = "3"
	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response from the Zotero API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zotero api: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a single Zotero library. It is read-only after
// construction and safe for serial use.
type Client struct {
	baseURL       string
	apiKey        string
	libraryPrefix string
	httpClient    *http.Client
	log           *log.Logger
}

// Options tune client construction. The zero value is usable.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient creates a client for the given library. libraryType is "users"
// or "groups"; libraryID is the numeric identifier.
func NewClient(apiKey, libraryType, libraryID string, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		libraryPrefix: fmt.Sprintf("/%s/%s", libraryType, libraryID),
		httpClient:    httpClient,
		log:           logger,
	}
}

// libraryPath prefixes path with the library coordinate, e.g.
// /users/12345/items.
func (c *Client) libraryPath(path string) string {
	return c.libraryPrefix + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Zotero-API-Version", apiVersion)
	req.Header.Set("Zotero-API-Key", c.apiKey)
	return req, nil
}

// do executes req and returns the response body. Non-2xx statuses are
// mapped to *APIError with the upstream message.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.log.Debug("zotero request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to zotero failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read zotero response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(data))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return data, nil
}

// getJSON issues a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	data, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode zotero response: %w", err)
	}
	return nil
}

// getText issues a GET and returns the raw body as a string. Used for the
// formatted bibliography endpoint, which returns markup rather than JSON.
func (c *Client) getText(ctx context.Context, path string, query url.Values) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return "", err
	}

	data, err := c.do(req)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
