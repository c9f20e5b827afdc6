// Package upstream executes mapped requests against the MarketPulse API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quartzlabs/marketpulse-mcp/internal/common"
	"github.com/quartzlabs/marketpulse-mcp/internal/config"
	"github.com/quartzlabs/marketpulse-mcp/internal/mapper"
)

// maxResponseSize caps the response body to prevent OOM from unexpectedly
// large upstream responses.
const maxResponseSize = 50 << 20 // 50MB

// Client issues outbound calls to the MarketPulse API with a fixed base URL,
// bearer credential, and request timeout. Read-only after construction.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
}

// Response is the raw outcome of one upstream call that received an HTTP
// response. Non-2xx statuses are delivered here, not as Go errors; only
// network-level failures (DNS, refused connection, timeout) surface as errors.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports whether the response status is a success (strictly [200,300)).
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// NewClient creates an upstream client from immutable configuration.
func NewClient(cfg config.UpstreamConfig, logger *common.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: "marketpulse-mcp/" + config.GetVersion(),
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		logger: logger,
	}
}

// BaseURL returns the configured upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes one mapped request. Each invocation is independent: no retry,
// no caching. The Authorization, User-Agent, and Accept headers are set
// unconditionally regardless of what the mapper produced.
func (c *Client) Do(ctx context.Context, out *mapper.OutboundRequest) (*Response, error) {
	log := c.logger.WithCorrelationId(uuid.New().String())

	target := c.baseURL + out.Path
	if len(out.Query) > 0 {
		target += "?" + out.Query.Encode()
	}

	var bodyReader io.Reader
	if out.Body != nil {
		payload, err := json.Marshal(out.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, out.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, vals := range out.Headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Debug().Str("method", out.Method).Str("path", out.Path).Msg("upstream request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Error().Str("method", out.Method).Str("path", out.Path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("upstream request failed")
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("upstream response")

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
