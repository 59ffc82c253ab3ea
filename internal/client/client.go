// Package client talks to a running consolex daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/server"
	"github.com/xdg/consolex/internal/version"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Detail, e.StatusCode)
}

// RunResult is the decoded body of POST /run. Status and Args are set for
// open, Stdout and Stderr for shell.
type RunResult struct {
	Status string   `json:"status,omitempty"`
	Args   []string `json:"args,omitempty"`
	Stdout string   `json:"stdout,omitempty"`
	Stderr string   `json:"stderr,omitempty"`

	// ProcessID is the registry ID reported for tracked open children.
	ProcessID string `json:"-"`
}

// Client provides methods to interact with the consolex API.
type Client struct {
	// BaseURL is the base URL of the API (e.g., "http://127.0.0.1:8000").
	BaseURL string

	// HTTPClient is the HTTP client used for requests.
	// If nil, http.DefaultClient is used. Shell requests block for the
	// child's whole lifetime, so the client should not set a Timeout.
	HTTPClient *http.Client
}

// New creates a client for the daemon listening on addr (host:port).
// A full http:// URL is accepted as well.
func New(addr string) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(base, "/"),
		HTTPClient: &http.Client{},
	}
}

// doRequest executes an HTTP request and optionally decodes the response.
// If body is not nil, it's JSON-encoded and sent as the request body.
// If result is not nil, the response body is JSON-decoded into it.
// A status outside acceptedStatuses is returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, acceptedStatuses ...int) (http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", version.UserAgent())

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !slices.Contains(acceptedStatuses, resp.StatusCode) {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp server.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Detail = errResp.Detail
		}
		return resp.Header, apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.Header, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// Health checks that the daemon is up and returns its status message.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp server.StatusResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/", nil, &resp, http.StatusOK); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Run sends a run request. For shell it blocks until the child exits.
func (c *Client) Run(ctx context.Context, action string, args []string) (*RunResult, error) {
	if args == nil {
		args = []string{}
	}
	body := map[string]any{"action": action, "args": args}

	var result RunResult
	header, err := c.doRequest(ctx, http.MethodPost, "/run", body, &result, http.StatusOK)
	if err != nil {
		return nil, err
	}
	result.ProcessID = header.Get(server.ProcessIDHeader)
	return &result, nil
}

// ListProcesses returns the processes tracked by the daemon.
func (c *Client) ListProcesses(ctx context.Context) ([]procreg.Info, error) {
	var list server.ProcessList
	if _, err := c.doRequest(ctx, http.MethodGet, "/processes", nil, &list, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	return list.Processes, nil
}

// GetProcess returns one tracked process.
func (c *Client) GetProcess(ctx context.Context, id string) (*procreg.Info, error) {
	var info procreg.Info
	if _, err := c.doRequest(ctx, http.MethodGet, "/processes/"+url.PathEscape(id), nil, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}

// Signal delivers a signal by name (e.g. "TERM") to a tracked process.
func (c *Client) Signal(ctx context.Context, id, signal string) (*procreg.Info, error) {
	var info procreg.Info
	body := server.SignalRequest{Signal: signal}
	if _, err := c.doRequest(ctx, http.MethodPost, "/processes/"+url.PathEscape(id)+"/signal", body, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}
