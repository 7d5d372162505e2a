package warden

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the Warden enforcement API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new enforcement API client.
//
// baseURL is the API base URL, e.g. "http://localhost:8080".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate runs a tool call through the decision pipeline. Evaluation never
// errors on the server side: pipeline failures surface as denials.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (*Decision, error) {
	url := c.baseURL + "/enforcement/evaluate"

	var decision Decision
	if err := c.doRequest(ctx, http.MethodPost, url, req, &decision); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return &decision, nil
}

// CreateOverride creates a PIN-gated single-use override request.
func (c *Client) CreateOverride(ctx context.Context, req CreateOverrideRequest) (*Override, error) {
	url := c.baseURL + "/overrides"

	var override Override
	if err := c.doRequest(ctx, http.MethodPost, url, req, &override); err != nil {
		return nil, fmt.Errorf("create override: %w", err)
	}
	return &override, nil
}

// GetOverride retrieves an override request by its ID.
func (c *Client) GetOverride(ctx context.Context, requestID string) (*Override, error) {
	url := fmt.Sprintf("%s/overrides/%s", c.baseURL, requestID)

	var override Override
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &override); err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}
	return &override, nil
}

// RedeemOverride redeems a pending override with its PIN. Redemption is
// single-use: a granted override cannot be redeemed again.
func (c *Client) RedeemOverride(ctx context.Context, requestID, pin string) (*RedeemResult, error) {
	url := fmt.Sprintf("%s/overrides/%s/redeem", c.baseURL, requestID)

	body := map[string]string{"pin": pin}

	var result RedeemResult
	if err := c.doRequest(ctx, http.MethodPost, url, body, &result); err != nil {
		return nil, fmt.Errorf("redeem override: %w", err)
	}
	return &result, nil
}

// CancelOverride cancels a pending override request.
func (c *Client) CancelOverride(ctx context.Context, requestID, cancelledBy string) error {
	url := fmt.Sprintf("%s/overrides/%s/cancel", c.baseURL, requestID)

	body := map[string]string{"cancelled_by": cancelledBy}

	if err := c.doRequest(ctx, http.MethodPost, url, body, nil); err != nil {
		return fmt.Errorf("cancel override: %w", err)
	}
	return nil
}

// EmergencyStatus retrieves the current emergency override state.
func (c *Client) EmergencyStatus(ctx context.Context) (*EmergencyStatus, error) {
	url := c.baseURL + "/emergency/status"

	var status EmergencyStatus
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &status); err != nil {
		return nil, fmt.Errorf("emergency status: %w", err)
	}
	return &status, nil
}

// ActivateEmergency activates the global emergency override.
func (c *Client) ActivateEmergency(ctx context.Context, req ActivateEmergencyRequest) (*EmergencyStatus, error) {
	url := c.baseURL + "/emergency/activate"

	var status EmergencyStatus
	if err := c.doRequest(ctx, http.MethodPost, url, req, &status); err != nil {
		return nil, fmt.Errorf("activate emergency: %w", err)
	}
	return &status, nil
}

// DeactivateEmergency deactivates the emergency override.
func (c *Client) DeactivateEmergency(ctx context.Context, deactivatedBy string) error {
	url := c.baseURL + "/emergency/deactivate"

	body := map[string]string{"deactivated_by": deactivatedBy}

	if err := c.doRequest(ctx, http.MethodPost, url, body, nil); err != nil {
		return fmt.Errorf("deactivate emergency: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request and decodes the response envelope.
func (c *Client) doRequest(ctx context.Context, method, url string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("api error: status=%d", resp.StatusCode)
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if !apiResp.Success {
		if apiResp.Error != nil {
			return fmt.Errorf("api error: %s", apiResp.Error.Message)
		}
		return fmt.Errorf("api error: status=%d", resp.StatusCode)
	}

	if result == nil || apiResp.Data == nil {
		return nil
	}

	// Re-marshal and unmarshal to convert Data to the target type
	dataBytes, err := json.Marshal(apiResp.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}
