package recognition

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
	"time"

	"jellyzam/internal/config"
	"jellyzam/internal/logging"
	"jellyzam/internal/sampler"
	"jellyzam/internal/services"
)

const (
	stage = "recognition"

	defaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20
)

// Recognizer matches an audio sample against the remote catalogue.
type Recognizer interface {
	Identify(ctx context.Context, sample sampler.Sample, creds Credentials) ([]Match, error)
}

// DetailsFetcher resolves a service track key into its descriptor.
type DetailsFetcher interface {
	TrackDetails(ctx context.Context, id string, creds Credentials) (*TrackDescriptor, error)
}

// Client provides access to the recognition HTTP API.
type Client struct {
	baseURL    string
	host       string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ Recognizer     = (*Client)(nil)
	_ DetailsFetcher = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a recognition client for baseURL. host is the default
// X-RapidAPI-Host header value.
func NewClient(baseURL, host string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		host:       strings.TrimSpace(host),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FromConfig builds a client and the credentials configured under
// [recognition].
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Client, Credentials) {
	if cfg == nil {
		return NewClient("", ""), Credentials{}
	}
	rec := cfg.Recognition
	client := NewClient(rec.BaseURL, rec.Host,
		WithTimeout(time.Duration(rec.TimeoutSeconds)*time.Second),
		WithLogger(logging.NewComponentLogger(logger, "recognition")),
	)
	return client, Credentials{APIKey: rec.APIKey, Host: rec.Host}
}

// Identify posts the sample bytes to the recognize endpoint and returns the
// candidates in service order. An empty slice means no match.
func (c *Client) Identify(ctx context.Context, sample sampler.Sample, creds Credentials) ([]Match, error) {
	if len(sample.Data) == 0 {
		return nil, services.Wrap(services.ErrValidation, stage, "identify", "sample is empty", nil)
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, stage, "identify", "api key is required", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(sample.Data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req, creds)

	body, err := c.do(ctx, req, "identify")
	if err != nil {
		return nil, err
	}

	var payload Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, stage, "decode recognize response", "", err)
	}
	matches := payload.Matches
	if len(matches) > 0 && matches[0].Track.IsZero() && payload.Track != nil {
		matches[0].Track = *payload.Track
	}
	c.logger.Debug("recognize response decoded",
		logging.String("sample_path", sample.Path),
		logging.Int("sample_bytes", len(sample.Data)),
		logging.Int("match_count", len(matches)))
	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

// TrackDetails fetches the descriptor for a service track key.
func (c *Client) TrackDetails(ctx context.Context, id string, creds Credentials) (*TrackDescriptor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, stage, "track details", "track id is required", nil)
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, stage, "track details", "api key is required", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/tracks/details")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "parse url", c.baseURL, err)
	}
	params := url.Values{}
	params.Set("track_id", id)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "build request", "", err)
	}
	c.authorize(req, creds)

	body, err := c.do(ctx, req, "track details")
	if err != nil {
		return nil, err
	}
	var details TrackDescriptor
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, stage, "decode track details", "", err)
	}
	return &details, nil
}

func (c *Client) authorize(req *http.Request, creds Credentials) {
	host := strings.TrimSpace(creds.Host)
	if host == "" {
		host = c.host
	}
	req.Header.Set("X-RapidAPI-Key", strings.TrimSpace(creds.APIKey))
	if host != "" {
		req.Header.Set("X-RapidAPI-Host", host)
	}
}

// do executes req and returns the body of a 2xx response. Status codes are
// classified into the services error markers.
func (c *Client) do(ctx context.Context, req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrTransient, stage, op, fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if readErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, services.Wrap(services.ErrTransient, stage, op, "read response body", readErr)
		}
	}

	c.logger.Debug("recognition request completed",
		logging.String("operation", op),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))

	if err := classifyStatus(resp.StatusCode, op); err != nil {
		return nil, err
	}
	return body, nil
}

func classifyStatus(status int, op string) error {
	detail := fmt.Sprintf("service returned %d", status)
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.Wrap(services.ErrAuthentication, stage, op, detail, nil)
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return services.Wrap(services.ErrTransient, stage, op, detail, nil)
	default:
		return services.Wrap(services.ErrMalformedResponse, stage, op, detail, nil)
	}
}
