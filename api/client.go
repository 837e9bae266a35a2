// Package api provides a client for the MediaWiki action API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/open-cli-collective/wtx/internal/version"
)

const (
	defaultTimeout = 30 * time.Second
)

// Client is a MediaWiki action API client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a client for the wiki whose script path is baseURL,
// e.g. https://en.wikipedia.org/w.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api.php")
	return &Client{
		baseURL:   baseURL,
		userAgent: version.UserAgent(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// BaseURL returns the wiki script path the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes an API GET request and returns the response body. API-level
// errors, which MediaWiki reports with status 200, are returned as
// *ErrorResponse.
func (c *Client) do(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api.php?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope struct {
		Error *ErrorResponse `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if envelope.Error != nil {
		envelope.Error.StatusCode = resp.StatusCode
		return nil, envelope.Error
	}
	if resp.StatusCode >= 400 {
		return nil, &ErrorResponse{StatusCode: resp.StatusCode, Code: "http", Info: http.StatusText(resp.StatusCode)}
	}

	return respBody, nil
}
