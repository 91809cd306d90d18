// Package client talks to a running session server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/types"
)

// Client sends requests to the session server.
type Client struct {
	addr       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for a server listening on a unix socket.
func NewClient(socketPath string) *Client {
	return &Client{
		addr:    socketPath,
		baseURL: "http://unix",
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					conn, err := d.DialContext(ctx, "unix", socketPath)
					if err != nil {
						if os.IsNotExist(err) {
							return nil, ErrServerNotRunning
						}
						if os.IsPermission(err) {
							return nil, ErrPermissionDenied
						}
						logrus.Errorf("failed to connect to unix socket: %v", err)
						return nil, err
					}
					return conn, nil
				},
			},
		},
	}
}

// NewHTTPClient creates a client for a server at baseURL, such as
// "http://127.0.0.1:8723".
func NewHTTPClient(baseURL string) *Client {
	return &Client{
		addr:       baseURL,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Send sends body as JSON and returns the raw response body.
func (c *Client) Send(ctx context.Context, method, path string, body any) ([]byte, error) {
	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"addr":   c.addr,
	}).Debug("sending request")

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return b, &APIError{Code: resp.StatusCode, Message: errorMessage(b)}
	}

	return b, nil
}

// errorMessage extracts the message of an error body.
func errorMessage(b []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return string(bytes.TrimSpace(b))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	b, err := c.Send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (*types.VersionResponse, error) {
	var v types.VersionResponse
	if err := c.do(ctx, http.MethodGet, "/version", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
