package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RyanBlaney/sonido-voz/logging"
)

// httpClient is the JSON transport shared by the HTTP backends.
type httpClient struct {
	client     *http.Client
	name       string
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	logger     logging.Logger
}

// HTTPOption configures an HTTP backend.
type HTTPOption func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *httpClient) { h.client = client }
}

// WithAPIKey sets the bearer token sent on every request.
func WithAPIKey(key string) HTTPOption {
	return func(h *httpClient) { h.apiKey = key }
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) HTTPOption {
	return func(h *httpClient) { h.maxRetries = max(n, 0) }
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) HTTPOption {
	return func(h *httpClient) { h.backoff = d }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) HTTPOption {
	return func(h *httpClient) { h.logger = logger }
}

func newHTTPClient(name, baseURL string, opts ...HTTPOption) *httpClient {
	h := &httpClient{
		client:     http.DefaultClient,
		name:       name,
		baseURL:    baseURL,
		maxRetries: 2,
		backoff:    time.Second,
	}
	for _, o := range opts {
		o(h)
	}
	h.logger = logging.OrDefault(h.logger).WithFields(logging.Fields{
		"component": name + "_client",
	})
	return h
}

// baseResp is the status envelope some services put in every body
type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

// post sends body as JSON and decodes the answer into result, retrying
// retryable API errors and transport errors with exponential backoff.
func (h *httpClient) post(ctx context.Context, path string, body any, result any) error {
	bodyData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			wait := h.backoff * time.Duration(1<<uint(attempt-1))
			h.logger.Debug("Retrying request", logging.Fields{
				"function": "post",
				"path":     path,
				"attempt":  attempt,
				"backoff":  wait.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := h.doRequest(ctx, path, bodyData, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return err
		}
		if apiErr, ok := AsAPIError(err); ok && !apiErr.Retryable() {
			return err
		}
	}

	return lastErr
}

func (h *httpClient) doRequest(ctx context.Context, path string, bodyData []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(bodyData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sonido-voz/1.0")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return h.handleResponse(resp, result)
}

func (h *httpClient) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return h.parseError(body, resp.StatusCode)
	}

	var envelope struct {
		BaseResp *baseResp `json:"base_resp"`
		TraceID  string    `json:"trace_id"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.BaseResp != nil && envelope.BaseResp.StatusCode != 0 {
			return &APIError{
				Backend:    h.name,
				StatusCode: envelope.BaseResp.StatusCode,
				StatusMsg:  envelope.BaseResp.StatusMsg,
				TraceID:    envelope.TraceID,
				HTTPStatus: resp.StatusCode,
			}
		}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (h *httpClient) parseError(body []byte, httpStatus int) error {
	var envelope struct {
		BaseResp *baseResp `json:"base_resp"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.BaseResp != nil {
		return &APIError{
			Backend:    h.name,
			StatusCode: envelope.BaseResp.StatusCode,
			StatusMsg:  envelope.BaseResp.StatusMsg,
			HTTPStatus: httpStatus,
		}
	}

	return &APIError{
		Backend:    h.name,
		StatusCode: httpStatus,
		StatusMsg:  string(bytes.TrimSpace(body)),
		HTTPStatus: httpStatus,
	}
}
