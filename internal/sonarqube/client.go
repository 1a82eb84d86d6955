// Package sonarqube provides a client for the SonarQube Web API: paginated
// issue retrieval that works around the server's 10000-result window, and the
// few write calls needed to triage issues (transition, comment, assign).
package sonarqube

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP call when no client is supplied.
const DefaultTimeout = 30 * time.Second

// Client provides HTTP access to a SonarQube instance.
type Client struct {
	URL        string
	Username   string
	Password   string
	HTTPClient *http.Client

	logger *slog.Logger
}

// NewClient creates a new SonarQube client. The logger receives one ERROR
// line per non-2xx response and DEBUG lines for pagination progress.
func NewClient(baseURL, username, password string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		URL:      strings.TrimSuffix(baseURL, "/"),
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// WithHTTPClient returns the client with a custom HTTP client (timeouts,
// instrumented transports, test servers).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.HTTPClient = hc
	return c
}

// get performs an authenticated GET against path with the given raw query.
func (c *Client) get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	apiURL := c.URL + path
	if rawQuery != "" {
		apiURL += "?" + rawQuery
	}
	return c.doRequest(ctx, http.MethodGet, apiURL, nil)
}

// postForm performs an authenticated form-encoded POST.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	_, err := c.doRequest(ctx, http.MethodPost, c.URL+path, form)
	return err
}

// doRequest executes an authenticated HTTP request and returns the response body.
// Non-2xx responses are logged and returned as *StatusError; transport failures
// are returned wrapped.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, form url.Values) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("%w: url is empty", ErrNotConfigured)
	}
	if c.Username == "" {
		return nil, fmt.Errorf("%w: username is empty", ErrNotConfigured)
	}

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sqsync/1.0")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, apiURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", apiURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.ErrorContext(ctx, "Request to server failed",
			"method", method,
			"url", apiURL,
			"status", resp.StatusCode,
			"body", string(respBody))
		return nil, &StatusError{
			Method:     method,
			URL:        apiURL,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// setAuth sets the Basic authorization header. SonarQube user tokens are sent
// as the username with an empty password.
func (c *Client) setAuth(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	req.Header.Set("Authorization", "Basic "+auth)
}
