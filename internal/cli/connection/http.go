package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/cryptogen-go/internal/infra/buildinfo"
	"github.com/yndnr/cryptogen-go/internal/server/httpserver/handler"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithTLSConfig sets the TLS configuration for https servers.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client talks to a cryptogen server.
type Client struct {
	baseURL   string
	client    *http.Client
	tlsConfig *tls.Config
	timeout   time.Duration
}

// NewClient creates a client for server, a host:port or URL. A bare
// host:port uses http.
func NewClient(server string, opts ...Option) *Client {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.tlsConfig != nil {
		transport.TLSClientConfig = c.tlsConfig
	}
	c.client = &http.Client{Timeout: c.timeout, Transport: transport}
	return c
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens fetches count tokens encoded with encoding.
func (c *Client) Tokens(ctx context.Context, count int, encoding string, fingerprints bool) (*handler.TokensResponse, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	if encoding != "" {
		q.Set("encoding", encoding)
	}
	if fingerprints {
		q.Set("fingerprints", "true")
	}

	var out handler.TokensResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tokens?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pool returns the pool settings of the server's session.
func (c *Client) Pool(ctx context.Context) (*handler.PoolResponse, error) {
	var out handler.PoolResponse
	if err := c.do(ctx, http.MethodGet, "/v1/pool", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfigurePool changes the pool settings and returns the new ones.
func (c *Client) ConfigurePool(ctx context.Context, req handler.ConfigurePoolRequest) (*handler.PoolResponse, error) {
	var out handler.PoolResponse
	if err := c.do(ctx, http.MethodPut, "/v1/pool", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready returns the readiness report of the server's session.
func (c *Client) Ready(ctx context.Context) (*handler.HealthResponse, error) {
	var out handler.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/ready", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a request and decodes the data field of the response envelope.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "cryptogen/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	return ParseResponse(resp, target)
}

// envelope mirrors handler.Response with the payload left raw.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// ParseResponse decodes an API response into target and closes the body.
// Error statuses become *APIError.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
