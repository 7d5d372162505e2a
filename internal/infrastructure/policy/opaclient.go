package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/logger"
	"github.com/warden-sh/warden/internal/shared/utils/logutil"
)

const (
	// Maximum response body size for the OPA data API (64KB)
	maxOPAResponseSize = 64 << 10
	// Default HTTP client timeout; individual evaluations are further
	// bounded by the caller's context deadline.
	defaultOPATimeout = 5 * time.Second
)

// opaRequest wraps the policy input as the OPA data API expects it.
type opaRequest struct {
	Input governance.PolicyInput `json:"input"`
}

// opaResponse represents the OPA data API response for the decision document.
type opaResponse struct {
	Result *struct {
		Allow  bool   `json:"allow"`
		Reason string `json:"reason"`
	} `json:"result"`
}

// OPAClient evaluates requests against an Open Policy Agent decision
// document over its HTTP data API.
type OPAClient struct {
	httpClient *http.Client
	url        string
	logger     logger.Interface
}

// NewOPAClient creates an evaluator that queries the given OPA data API URL,
// e.g. http://localhost:8181/v1/data/warden/authz.
func NewOPAClient(url string, log logger.Interface) *OPAClient {
	return &OPAClient{
		httpClient: &http.Client{
			Timeout: defaultOPATimeout,
		},
		url:    url,
		logger: log,
	}
}

var _ governance.PolicyEvaluator = (*OPAClient)(nil)

func (c *OPAClient) Name() string { return "opa" }

func (c *OPAClient) Evaluate(ctx context.Context, input governance.PolicyInput) (governance.PolicyResult, error) {
	body, err := json.Marshal(opaRequest{Input: input})
	if err != nil {
		return governance.PolicyResult{}, fmt.Errorf("failed to encode policy input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return governance.PolicyResult{}, fmt.Errorf("failed to create policy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return governance.PolicyResult{}, fmt.Errorf("policy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxOPAResponseSize))
		c.logger.Errorw("policy engine returned non-OK status",
			"status", resp.StatusCode,
			"url", c.url,
			"body", logutil.TruncateForLog(string(snippet), 256),
		)
		return governance.PolicyResult{}, fmt.Errorf("policy engine returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOPAResponseSize))
	if err != nil {
		return governance.PolicyResult{}, fmt.Errorf("failed to read policy response: %w", err)
	}

	var parsed opaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return governance.PolicyResult{}, fmt.Errorf("failed to decode policy response: %w", err)
	}

	// An absent result means the decision document is undefined for this
	// input; surface it as an error so the pipeline fails closed.
	if parsed.Result == nil {
		return governance.PolicyResult{}, fmt.Errorf("policy decision undefined for %s", c.url)
	}

	result := governance.PolicyResult{
		Allow:  parsed.Result.Allow,
		Reason: parsed.Result.Reason,
	}
	if result.Reason == "" {
		if result.Allow {
			result.Reason = "allowed by policy"
		} else {
			result.Reason = "denied by policy"
		}
	}

	return result, nil
}
