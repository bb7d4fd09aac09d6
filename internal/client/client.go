// Package client talks to the account/progress service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUsernameTaken = errors.New("username taken")
)

// StatusError is returned for non-2xx responses without a dedicated sentinel.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Session is the result of Signup or Login.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Me identifies the authenticated user.
type Me struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Client is safe for concurrent use once configured.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the bearer token in use, if any.
func (c *Client) Token() string { return c.token }

// Signup creates an account. The returned token is also used for later calls.
func (c *Client) Signup(ctx context.Context, username, password string) (Session, error) {
	return c.authenticate(ctx, "/signup", username, password)
}

// Login exchanges credentials for a token, which is then used for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	return c.authenticate(ctx, "/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (Session, error) {
	var s Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &s); err != nil {
		return Session{}, err
	}
	c.token = s.Token
	return s, nil
}

func (c *Client) Me(ctx context.Context) (Me, error) {
	var me Me
	err := c.do(ctx, http.MethodGet, "/me", nil, &me)
	return me, err
}

// RecordProgress upserts the caller's result for puzzleID.
func (c *Client) RecordProgress(ctx context.Context, puzzleID string, solved bool) error {
	body := map[string]any{"puzzleId": puzzleID, "solved": solved}
	return c.do(ctx, http.MethodPost, "/progress", body, nil)
}

// SolvedPuzzles lists the puzzle IDs the caller has solved.
func (c *Client) SolvedPuzzles(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.do(ctx, http.MethodGet, "/progress", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// do sends payload as JSON, maps error statuses and decodes a 2xx body into dest.
func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrUsernameTaken
	}
	var e struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &e) != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(raw))
	}
	return &StatusError{Code: resp.StatusCode, Message: e.Error}
}
