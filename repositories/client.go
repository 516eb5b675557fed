package repositories

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

	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/session"
	"go.uber.org/zap"
)

const (
	maxResponseBytes = 10 << 20
	maxErrorBody     = 4 << 10
)

var (
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrAuthRequired      = errors.New("authentication required")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client is the shared HTTP plumbing of the remote tournament service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  session.TokenProvider
	logger  *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, tokens session.TokenProvider, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if tokens == nil {
		tokens = session.Anonymous()
	}
	return &Client{
		baseURL: u,
		http:    httpClient,
		tokens:  tokens,
		logger:  logger.OrNop(log),
	}, nil
}

type request struct {
	method      string
	path        []string
	query       url.Values
	body        any
	requireAuth bool
}

// do sends the request and returns the raw response body of a 2xx reply.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	if req.requireAuth && token == "" {
		return nil, ErrAuthRequired
	}

	u := c.baseURL.JoinPath(req.path...)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.method, u.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("remote call",
		zap.String("method", req.method),
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     req.method,
			Path:       u.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s %s: %w", ErrTransport, req.method, u.Path, err)
	}
	return data, nil
}
