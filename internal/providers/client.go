package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadharvest/pkg/models"
)

// apiClient is the HTTP plumbing shared by all vendor adapters: explicit
// timeout, bearer auth, and the transient/permanent error classification the
// rest of the system relies on.
type apiClient struct {
	provider models.Provider
	baseURL  string
	apiKey   string
	http     *http.Client
}

func newAPIClient(provider models.Provider, baseURL, apiKey string, timeout time.Duration) *apiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &apiClient{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), out)
}

func (c *apiClient) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures and timeouts are retryable.
		return &TransientError{Provider: c.provider, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Provider: c.provider, Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return &TransientError{Provider: c.provider, Err: fmt.Errorf("vendor returned %d: %s", resp.StatusCode, truncate(raw))}
	case resp.StatusCode >= 400:
		return &PermanentError{Provider: c.provider, StatusCode: resp.StatusCode, Message: vendorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransientError{Provider: c.provider, Err: fmt.Errorf("failed to decode vendor response: %w", err)}
	}
	return nil
}

// vendorMessage extracts a human-readable message from a vendor error body,
// falling back to the raw body so 4xx details are surfaced verbatim.
func vendorMessage(raw []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		switch {
		case envelope.Error != "":
			return envelope.Error
		case envelope.Message != "":
			return envelope.Message
		case envelope.Detail != "":
			return envelope.Detail
		}
	}
	return truncate(raw)
}

func truncate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 256 {
		return s[:256]
	}
	return s
}
