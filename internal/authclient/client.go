// Package authclient calls the auth service over HTTP. It implements only
// the boundary the chat client needs: sign-up, sign-in, sign-out, and
// session lookup.
package authclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"wizdomai/pkg/domain"
)

// Client calls the auth service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an auth service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs an auth service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// SignUp registers a new account and returns its opened session.
func (c *Client) SignUp(email, password string, metadata map[string]string) (domain.Session, error) {
	payload := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}
	var session domain.Session
	if err := c.doJSON(http.MethodPost, "/auth/signup", "", payload, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Login validates credentials and returns the opened session.
func (c *Client) Login(email, password string) (domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	var session domain.Session
	if err := c.doJSON(http.MethodPost, "/auth/login", "", payload, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Logout invalidates a session token.
func (c *Client) Logout(token string) error {
	return c.doJSON(http.MethodPost, "/auth/logout", token, nil, nil)
}

// Session resolves a token to its live session.
func (c *Client) Session(token string) (domain.Session, error) {
	var session domain.Session
	if err := c.doJSON(http.MethodGet, "/auth/session", token, nil, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (c *Client) doJSON(method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
