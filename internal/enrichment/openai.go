package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default values for the OpenAI oracle.
const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4.1-mini"
	defaultOpenAIMaxTokens  = 1400
	defaultOpenAIRetryDelay = 2 * time.Second
	defaultOracleTimeout    = 45 * time.Second
)

// responsesRequest is the OpenAI Responses API request body.
type responsesRequest struct {
	Model           string           `json:"model"`
	Tools           []responsesTool  `json:"tools,omitempty"`
	Input           []responsesInput `json:"input"`
	MaxOutputTokens int              `json:"max_output_tokens,omitempty"`
}

type responsesTool struct {
	Type string `json:"type"`
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responsesResponse is the subset of the Responses API body the oracle reads.
type responsesResponse struct {
	ID         string            `json:"id"`
	Output     []responsesOutput `json:"output"`
	OutputText string            `json:"output_text"`
}

type responsesOutput struct {
	Type    string             `json:"type"`
	Content []responsesContent `json:"content"`
}

type responsesContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// openAIErrorResponse represents an error response from the OpenAI API.
type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// OpenAIConfig holds the parameters needed to create an OpenAI oracle.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxTokens caps the answer; zero uses the default.
	MaxTokens int
	// WebSearch attaches the web_search tool to every request.
	WebSearch bool
}

// OpenAIOracle enriches candidates through the OpenAI Responses API.
type OpenAIOracle struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	webSearch  bool
	maxTokens  int
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIOracle creates an OpenAI-backed oracle.
func NewOpenAIOracle(cfg OpenAIConfig, timeout time.Duration, maxRetries int) *OpenAIOracle {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	return &OpenAIOracle{
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
		retryDelay: defaultOpenAIRetryDelay,
	}
}

// Name returns the oracle name.
func (o *OpenAIOracle) Name() string { return "openai" }

// Model returns the model identifier being used.
func (o *OpenAIOracle) Model() string { return o.model }

// EnrichBatch sends the whole batch in one request. Transient failures are
// retried with a linear backoff.
func (o *OpenAIOracle) EnrichBatch(ctx context.Context, query string, items []Item) (map[string]Fields, error) {
	if len(items) == 0 {
		return map[string]Fields{}, nil
	}

	system, user, err := BuildPrompt(query, items)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	req := responsesRequest{
		Model: o.model,
		Input: []responsesInput{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxOutputTokens: o.maxTokens,
	}
	if o.webSearch {
		req.Tools = []responsesTool{{Type: "web_search"}}
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			delay := o.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("openai: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		text, err := o.doRequest(ctx, req)
		if err == nil {
			return ParseEnrichment(text), nil
		}
		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("openai: exhausted %d retries: %w", o.maxRetries, lastErr)
}

// doRequest performs a single Responses API call and returns the answer text.
func (o *OpenAIOracle) doRequest(ctx context.Context, req responsesRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", &APIError{Provider: "openai", Message: err.Error(), Type: "network_error"}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("openai: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseOpenAIAPIError(resp.StatusCode, respBody)
	}

	var parsed responsesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("openai: failed to unmarshal response: %w", err)
	}
	return parsed.text(), nil
}

// text returns the first output_text block, falling back to the top-level
// convenience field.
func (r *responsesResponse) text() string {
	for _, out := range r.Output {
		for _, c := range out.Content {
			if c.Type == "output_text" && c.Text != "" {
				return c.Text
			}
		}
	}
	return r.OutputText
}

func parseOpenAIAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "openai",
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp openAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
		apiErr.Code = errResp.Error.Code
	}
	return apiErr
}
