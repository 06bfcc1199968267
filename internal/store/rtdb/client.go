// Package rtdb stores data in a Firebase Realtime Database through its REST API.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrUnavailable     = errors.New("realtime database unavailable")
	ErrInvalidResponse = errors.New("invalid response from realtime database")
)

// StatusError is returned for non-2xx answers.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rtdb returned status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL     string
	AuthToken   string
	Timeout     time.Duration
	RetryCount  int
	BaseBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		RetryCount:  2,
		BaseBackoff: 500 * time.Millisecond,
	}
}

type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.BaseBackoff <= 0 {
		config.BaseBackoff = def.BaseBackoff
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// Get decodes the node at path into out. A missing node decodes as JSON null.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doWithRetry(ctx, http.MethodGet, path, nil, nil, out)
}

// GetShallow lists only the child keys of path.
func (c *Client) GetShallow(ctx context.Context, path string, out any) error {
	return c.doWithRetry(ctx, http.MethodGet, path, url.Values{"shallow": {"true"}}, nil, out)
}

func (c *Client) Put(ctx context.Context, path string, v any) error {
	return c.doWithRetry(ctx, http.MethodPut, path, url.Values{"print": {"silent"}}, v, nil)
}

// Push appends v under path and returns the generated key.
func (c *Client) Push(ctx context.Context, path string, v any) (string, error) {
	var resp struct {
		Name string `json:"name"`
	}
	if err := c.doWithRetry(ctx, http.MethodPost, path, nil, v, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("%w: push returned no key", ErrInvalidResponse)
	}
	return resp.Name, nil
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doWithRetry(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Path joins and escapes path segments.
func Path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

func (c *Client) endpoint(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.config.AuthToken != "" {
		q.Set("auth", c.config.AuthToken)
	}
	u := c.config.BaseURL + "/" + strings.TrimLeft(path, "/") + ".json"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

const maxBackoff = 10 * time.Second

func calculateBackoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(c.config.BaseBackoff, attempt)):
			}
		}

		lastErr = c.do(ctx, method, path, query, body, result)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *StatusError
		if errors.As(lastErr, &se) && se.StatusCode < 500 {
			return lastErr
		}
		if errors.Is(lastErr, ErrInvalidResponse) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}
