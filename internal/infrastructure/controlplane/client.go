// Package controlplane talks GraphQL over HTTP to the deployment platform.
package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/shared/config"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

const (
	// maxResponseSize bounds GraphQL responses (1MB)
	maxResponseSize = 1 << 20
	// maxErrorBodyLog is how much of a non-2xx body ends up in the error message
	maxErrorBodyLog = 512
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQLClient implements controlplane.API.
type GraphQLClient struct {
	endpoint   string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Interface
}

var _ controlplane.API = (*GraphQLClient)(nil)

func NewGraphQLClient(cfg config.ControlPlaneConfig, log logger.Interface) *GraphQLClient {
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &GraphQLClient{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		timeout:  cfg.Timeout(),
		// per-call deadlines come from the context; this only caps stuck connections
		httpClient: &http.Client{Timeout: cfg.Timeout() + 5*time.Second},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     log.Named("controlplane"),
	}
}

// execute runs one GraphQL operation and decodes its data into out.
func (c *GraphQLClient) execute(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	start := time.Now()
	outcome := outcomeSuccess
	defer func() {
		requestsTotal.WithLabelValues(operation, outcome).Inc()
		requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		outcome = outcomeRateLimited
		return &controlplane.Error{Operation: operation, Message: "rate limiter: " + err.Error(), Err: err}
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		outcome = outcomeTransport
		return &controlplane.Error{Operation: operation, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		outcome = outcomeTransport
		return &controlplane.Error{Operation: operation, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = outcomeTransport
		return &controlplane.Error{Operation: operation, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		outcome = outcomeTransport
		return &controlplane.Error{Operation: operation, Message: "read response", HTTPStatus: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = outcomeHTTPError
		msg := strings.TrimSpace(string(raw))
		if len(msg) > maxErrorBodyLog {
			msg = msg[:maxErrorBodyLog]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &controlplane.Error{Operation: operation, Message: msg, HTTPStatus: resp.StatusCode}
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(raw, &gqlResp); err != nil {
		outcome = outcomeTransport
		return &controlplane.Error{Operation: operation, Message: "decode response", HTTPStatus: resp.StatusCode, Err: err}
	}

	if len(gqlResp.Errors) > 0 {
		outcome = outcomeAPIError
		msgs := make([]string, 0, len(gqlResp.Errors))
		for _, e := range gqlResp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &controlplane.Error{Operation: operation, Message: strings.Join(msgs, "; "), HTTPStatus: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		outcome = outcomeAPIError
		return &controlplane.Error{Operation: operation, Message: fmt.Sprintf("unexpected data shape: %v", err), HTTPStatus: resp.StatusCode, Err: err}
	}
	return nil
}
