package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges form-encoded credentials for an access token. This is the
// one call that cannot ride the gateway's bearer path, since no token exists yet.
// Invalid credentials surface the server's detail message.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	form.Set("remember_me", strconv.FormatBool(remember))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		json.NewDecoder(resp.Body).Decode(&detail)
		if detail.Detail != "" {
			return "", fmt.Errorf("%s", detail.Detail)
		}
		return "", fmt.Errorf("invalid email or password")
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	return tok.AccessToken, nil
}

// RefreshToken trades the current token for a fresh one. It deliberately does
// not go through Call: a 401 here means the session is over, not that a
// refresh should be attempted.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/auth/refresh", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return "", &Error{Status: resp.StatusCode, Body: string(text)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	return tok.AccessToken, nil
}
