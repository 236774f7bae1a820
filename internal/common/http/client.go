// internal/common/http/client.go
package http

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

	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/common/logger"
	"bayi-rut/internal/common/metrics"

	"github.com/google/uuid"
)

const maxBodyBytes = 32 << 20

// ErrResponseTooLarge is returned instead of a silently truncated body.
var ErrResponseTooLarge = errors.New("response too large")

// Request describes one backend call relative to the client's base URL.
type Request struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      interface{}
	Token     string
	Accept    string
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxBody    int64
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, userAgent string, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		maxBody:   maxBodyBytes,
		logger:    log,
	}
}

// Do sends req and reads the whole body. Transport failures, timeouts and
// gateway errors (502/503/504) come back as NETWORK_ERROR; every other
// status is returned to the caller for interpretation.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)

	metrics.APIRequests.WithLabelValues(req.Operation, metrics.Outcome(err)).Inc()
	metrics.APIRequestDuration.WithLabelValues(req.Operation).Observe(time.Since(start).Seconds())

	fields := map[string]interface{}{
		"operation":  req.Operation,
		"method":     req.Method,
		"path":       req.Path,
		"durationMs": time.Since(start).Milliseconds(),
	}
	if resp != nil {
		fields["status"] = resp.StatusCode
		fields["requestId"] = resp.RequestID
	}
	if err != nil {
		c.logger.WithError(err).Warn("backend request failed", fields)
	} else {
		c.logger.Debug("backend request completed", fields)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.New().String()
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNetworkError(req.Operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, apperrors.NewNetworkError(req.Operation, fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(data)) > c.maxBody {
		return nil, apperrors.NewInternalError(fmt.Errorf("%w: %s exceeded %d bytes", ErrResponseTooLarge, req.Operation, c.maxBody)).
			WithMetadata("requestId", requestID)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return out, apperrors.NewNetworkError(req.Operation, fmt.Errorf("status %d", resp.StatusCode))
	}
	return out, nil
}

// IsTimeout reports whether err came from a deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
