// Package api is the single network egress point of the client. Every server
// call goes through Client.Call, which injects the bearer token, negotiates
// JSON, translates failures into *Error and performs the one-shot
// refresh-and-retry dance on 401. Only the login and refresh calls themselves
// (auth.go) sidestep the bearer path, since they must work without a token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Error is a non-success HTTP response, with the body text preserved so the
// UI can show what the server said.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Body)
}

// Client talks to one Mealie server.
type Client struct {
	base  string
	http  *http.Client
	token func() string

	// Set via SetCallbacks after construction; breaks the api<->auth cycle
	// the same way the token cell does.
	refresh        func(context.Context) bool
	onUnauthorized func()

	// Concurrent 401s from parallel in-flight calls collapse into a single
	// refresh attempt.
	refreshGroup singleflight.Group
}

// NewClient creates a client for the server at base (scheme + host, no
// trailing slash). token returns the current access token on every call, so
// a refreshed token is picked up by retries automatically.
func NewClient(base string, token func() string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		http:  &http.Client{},
		token: token,
	}
}

// SetCallbacks wires the token-refresh attempt and the session-teardown
// handler. Both may be nil, in which case a 401 simply fails the call.
func (c *Client) SetCallbacks(refresh func(context.Context) bool, onUnauthorized func()) {
	c.refresh = refresh
	c.onUnauthorized = onUnauthorized
}

// Call issues method against the API path (e.g. "/foods?search=x"), sending
// body as JSON when non-nil and decoding the response into out when non-nil.
// A text response is assigned when out is a *string. On 401 it attempts
// exactly one silent token refresh and retransmits once; if that also comes
// back 401, or the refresh fails, the unauthorized callback fires and the
// call fails.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	do := func() (*http.Response, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+"/api"+path, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}

	resp, err := do()
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if !c.tryRefresh(ctx) {
			c.unauthorized()
			return &Error{Status: http.StatusUnauthorized, Body: "unauthorized"}
		}
		resp, err = do()
		if err != nil {
			return fmt.Errorf("%s %s (retry): %w", method, path, err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.unauthorized()
			return &Error{Status: http.StatusUnauthorized, Body: "unauthorized"}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &Error{Status: resp.StatusCode, Body: string(text)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if sp, ok := out.(*string); ok {
			*sp = string(raw)
			return nil
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) tryRefresh(ctx context.Context) bool {
	if c.refresh == nil {
		return false
	}
	v, _, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refresh(ctx), nil
	})
	ok, _ := v.(bool)
	return ok
}

func (c *Client) unauthorized() {
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
