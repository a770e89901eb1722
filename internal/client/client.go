// Package client talks to the Aparthus API and drives login and logout on the client side.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxResponseBytes = 4 << 20

// envelope is the server's response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is a typed API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryPolicy

	mu      sync.RWMutex
	token   string
	expired func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the API at baseURL, e.g. http://localhost:5001.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnSessionExpired registers fn to run when the server rejects the stored token. The token
// is cleared before fn runs.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	c.expired = fn
	c.mu.Unlock()
}

// rejectToken clears token if it is still current and reports the expiry.
func (c *Client) rejectToken(token string) {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return
	}
	c.token = ""
	fn := c.expired
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// get reads path into out, retrying network failures per the client's policy.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.retry.run(ctx, func() error {
		return c.send(ctx, http.MethodGet, path, nil, out)
	})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out)
}

// postAnonymous sends without the bearer token, for login and sign-up.
func (c *Client) postAnonymous(ctx context.Context, path string, body, out any) error {
	return c.sendAs(ctx, "", http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.sendAs(ctx, c.Token(), method, path, body, out)
}

// sendAs performs one request with token and maps every failure onto the client error types.
// A 401 to a request that carried a token means the session has expired.
func (c *Client) sendAs(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Timeout: isTimeout(err), Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := ""
		if decodeErr == nil {
			message = env.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			if token != "" {
				c.rejectToken(token)
				return &AuthError{Message: message, Expired: true}
			}
			if message == "" {
				message = "Lütfen geçerli bir kullanıcı adı ve şifre girin."
			}
			return &AuthError{Message: message}
		}
		return &ServerError{Status: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return &FormatError{Status: resp.StatusCode, Err: decodeErr}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &FormatError{Status: resp.StatusCode, Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsStatus reports whether err is a ServerError with the given status.
func IsStatus(err error, status int) bool {
	var server *ServerError
	return errors.As(err, &server) && server.Status == status
}
