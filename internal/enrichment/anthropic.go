package enrichment

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

const (
	anthropicAPIVersion        = "2023-06-01"
	defaultAnthropicBaseURL    = "https://api.anthropic.com"
	defaultAnthropicModel      = "claude-sonnet-4-5"
	defaultAnthropicMaxTokens  = 1400
	anthropicWebSearchTool     = "web_search_20250305"
	anthropicWebSearchMaxUses  = 5
	defaultAnthropicRetryDelay = time.Second
)

type messagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnthropicConfig holds the parameters needed to create an Anthropic oracle.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	WebSearch bool
}

// AnthropicOracle enriches candidates through the Anthropic Messages API.
type AnthropicOracle struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	webSearch  bool
	maxTokens  int
	maxRetries int
	retryDelay time.Duration
}

// NewAnthropicOracle creates an Anthropic-backed oracle.
func NewAnthropicOracle(cfg AnthropicConfig, timeout time.Duration, maxRetries int) *AnthropicOracle {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicOracle{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		webSearch:  cfg.WebSearch,
		maxTokens:  maxTokens,
		maxRetries: maxRetries,
		retryDelay: defaultAnthropicRetryDelay,
	}
}

// Name returns the oracle name.
func (o *AnthropicOracle) Name() string { return "anthropic" }

// Model returns the model identifier being used.
func (o *AnthropicOracle) Model() string { return o.model }

// EnrichBatch sends the batch in one Messages API call. Transient errors are
// retried with exponential backoff.
func (o *AnthropicOracle) EnrichBatch(ctx context.Context, query string, items []Item) (map[string]Fields, error) {
	if len(items) == 0 {
		return map[string]Fields{}, nil
	}

	system, user, err := BuildPrompt(query, items)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	apiReq := messagesRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	}
	if o.webSearch {
		apiReq.Tools = []anthropicTool{{
			Type:    anthropicWebSearchTool,
			Name:    "web_search",
			MaxUses: anthropicWebSearchMaxUses,
		}}
	}

	var resp *messagesResponse
	var lastErr error

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			delay := o.retryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("anthropic: context cancelled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, lastErr = o.sendRequest(ctx, apiReq)
		if lastErr == nil {
			break
		}
		if !isTransientError(lastErr) {
			return nil, lastErr
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("anthropic: all %d retries exhausted: %w", o.maxRetries, lastErr)
	}

	return ParseEnrichment(resp.text()), nil
}

func (o *AnthropicOracle) sendRequest(ctx context.Context, apiReq messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", o.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{
			Provider: "anthropic",
			Message:  fmt.Sprintf("request failed: %v", err),
			Type:     "network_error",
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, &APIError{
			Provider: "anthropic",
			Message:  fmt.Sprintf("failed to read response body: %v", err),
			Type:     "network_error",
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseAnthropicAPIError(httpResp.StatusCode, respBody)
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// text concatenates every text block. With web search enabled the answer is
// interleaved with tool-use blocks.
func (r *messagesResponse) text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func parseAnthropicAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "anthropic",
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp anthropicErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
	}
	return apiErr
}
