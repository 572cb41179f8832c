// Package api is the single request utility every controller goes through.
// Each call is one attempt: any transport or status failure is reported to the
// user through the notifier and returned as *RequestFailed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/ui"
)

// RequestFailed is returned for any failed call.
type RequestFailed struct {
	Method string
	Path   string
	// Status is the HTTP status code, 0 when no response was received.
	Status  int
	Message string
	Err     error
}

func (e *RequestFailed) Error() string {
	return e.Message
}

func (e *RequestFailed) Unwrap() error {
	return e.Err
}

// Client calls the worksheet service.
type Client struct {
	base   *url.URL
	http   *http.Client
	notify ui.Notifier
}

// New creates a client for the service rooted at baseURL. The http.Client
// carries no timeout of its own; pass a context with a deadline to bound a call.
func New(baseURL string, n ui.Notifier, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{base: u, http: httpClient, notify: n}, nil
}

// URL resolves a service path (which may carry a query) against the base URL.
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	u := *c.base
	u.Path = c.base.Path + ref.Path
	u.RawPath = ""
	if ref.RawPath != "" {
		u.RawPath = c.base.EscapedPath() + ref.RawPath
	}
	u.RawQuery = ref.RawQuery
	return u.String()
}

// Do sends one request and decodes the JSON response into out (when non-nil).
// in, when non-nil, is sent as a JSON body.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	err := c.do(ctx, method, path, in, out)
	if err != nil {
		slog.Warn("request failed", "method", method, "path", path, "error", err)
		c.notify.Alert(i18n.Td(ctx, "RequestFailed", map[string]any{"Error": err.Message}))
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) *RequestFailed {
	fail := func(status int, msg string, err error) *RequestFailed {
		return &RequestFailed{Method: method, Path: path, Status: status, Message: msg, Err: err}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fail(0, "encode request: "+err.Error(), err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fail(0, err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fail(0, err.Error(), err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		msg := fmt.Sprintf("HTTP %d", res.StatusCode)
		if detail := errorDetail(res.Body); detail != "" {
			msg += " (" + detail + ")"
		}
		return fail(res.StatusCode, msg, nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fail(res.StatusCode, "decode response: "+err.Error(), err)
	}
	return nil
}

// errorDetail extracts {"detail": "..."} from an error body, if present.
func errorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	return string(body.Detail)
}
