package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/server/api"
	"github.com/StrathCole/oracle-rounds/pkg/version"
)

// Client talks to one or more oracle-rounds API endpoints. Requests go to the current
// endpoint; transport failures rotate to the next one. HTTP error statuses do not.
type Client struct {
	logger    *logging.Logger
	endpoints []string
	current   int
	mu        sync.RWMutex
	http      *http.Client
}

// New creates a client for the given base URLs, e.g. "http://localhost:8080".
func New(endpoints []string, timeout time.Duration, logger *logging.Logger) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	trimmed := make([]string, len(endpoints))
	for i, ep := range endpoints {
		trimmed[i] = strings.TrimRight(ep, "/")
	}
	return &Client{
		logger:    logger.With("component", "api-client"),
		endpoints: trimmed,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// CurrentEndpoint returns the currently active endpoint.
func (c *Client) CurrentEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints[c.current]
}

// Failover rotates to the next endpoint.
func (c *Client) Failover() {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.current
	c.current = (c.current + 1) % len(c.endpoints)
	c.logger.Warn("Failing over to next API endpoint", "from", c.endpoints[old], "to", c.endpoints[c.current])
}

// NextRound returns the round id a submission made now would target. When proposed is
// non-nil it also reports whether that answer may open a new round.
func (c *Client) NextRound(ctx context.Context, feedID string, proposed *big.Int) (uint64, bool, error) {
	path := "/v1/feeds/" + url.PathEscape(feedID) + "/next-round"
	if proposed != nil {
		path += "?proposed=" + proposed.String()
	}
	var resp struct {
		RoundID uint64 `json:"round_id"`
		Due     bool   `json:"due"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, false, err
	}
	return resp.RoundID, resp.Due, nil
}

// Latest returns the feed's latest round.
func (c *Client) Latest(ctx context.Context, feedID string) (api.RoundResponse, error) {
	var resp api.RoundResponse
	err := c.do(ctx, http.MethodGet, "/v1/feeds/"+url.PathEscape(feedID)+"/latest", nil, &resp)
	return resp, err
}

// Submit posts one signed submission.
func (c *Client) Submit(ctx context.Context, req api.SubmissionRequest) (api.SubmissionResponse, error) {
	var resp api.SubmissionResponse
	err := c.do(ctx, http.MethodPost, "/v1/feeds/"+url.PathEscape(req.FeedID)+"/submissions", req, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < len(c.endpoints); attempt++ {
		endpoint := c.CurrentEndpoint()
		err := c.doOnce(ctx, method, endpoint+path, payload, out)
		if err == nil || errors.Is(err, ErrServerError) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		c.logger.Warn("API request failed", "endpoint", endpoint, "path", path, "error", err)
		c.Failover()
	}
	return fmt.Errorf("%w: %w", ErrAllEndpointsFailed, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, target string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.AgentString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("%w: %d: %s", ErrServerError, resp.StatusCode, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
