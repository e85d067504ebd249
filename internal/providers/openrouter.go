package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int           // Retries after the first attempt (default: 3)
	RetryDelay   time.Duration // Base delay between retries (default: 1s)
	Logger       *slog.Logger
}

// OpenRouterClient implements LLMClient using the OpenRouter API.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	logger       *slog.Logger
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "google/gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       &http.Client{Timeout: cfg.Timeout},
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		logger:       cfg.Logger,
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Model returns the default model.
func (c *OpenRouterClient) Model() string {
	return c.defaultModel
}

// Chat sends a chat completion request.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, req)
	defer cancel()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenRouterName,
		ModelUsed: model,
	}

	orReq := &openRouterRequest{
		Model:       model,
		Messages:    make([]openRouterMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Usage:       &openRouterUsageRequest{Include: true},
	}
	for _, m := range req.Messages {
		orReq.Messages = append(orReq.Messages, openRouterMessage{Role: m.Role, Content: m.Content})
	}
	if req.ResponseFormat != nil {
		schema, err := sanitizeSchemaForModel(model, req.ResponseFormat.JSONSchema)
		if err != nil {
			return result.fail("schema_error", start, err)
		}
		orReq.ResponseFormat = &openRouterResponseFormat{
			Type:       req.ResponseFormat.Type,
			JSONSchema: schema,
		}
	}

	orResp, attempts, err := c.doRequest(ctx, "/chat/completions", orReq)
	result.Attempts = attempts
	if err != nil {
		return result.fail("http_error", start, err)
	}

	content, err := messageText(orResp.Choices[0].Message.Content)
	if err != nil {
		return result.fail("json_parse", start, &MalformedResponseError{Provider: OpenRouterName, Err: err})
	}

	result.Content = content
	if orResp.Model != "" {
		result.ModelUsed = orResp.Model
	}
	result.PromptTokens = orResp.Usage.PromptTokens
	result.CompletionTokens = orResp.Usage.CompletionTokens
	result.TotalTokens = orResp.Usage.TotalTokens
	result.ReasoningTokens = orResp.Usage.CompletionTokensDetails.ReasoningTokens
	result.CostUSD = orResp.Usage.Cost

	if req.ResponseFormat != nil {
		parsed, err := decodeStructured(OpenRouterName, req, content)
		if err != nil {
			return result.fail("json_parse", start, err)
		}
		result.ParsedJSON = parsed
	}

	result.Success = true
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime
	return result, nil
}

// doRequest posts to OpenRouter, retrying transient failures with
// exponential backoff and jitter. It returns the number of attempts made.
func (c *OpenRouterClient) doRequest(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, int, error) {
	attempts := 0
	resp, err := retry.DoWithData(
		func() (*openRouterResponse, error) {
			attempts++
			// 413/422 are often cache artifacts upstream; a nonce makes the retry distinct.
			if attempts > 1 {
				injectNonce(orReq, attempts)
			}
			return c.post(ctx, path, orReq)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(jitterFor(c.retryDelay)),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying openrouter request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Provider: OpenRouterName, Err: err}
		}
		return nil, attempts, err
	}
	return resp, attempts, nil
}

// post performs a single HTTP round trip.
func (c *OpenRouterClient) post(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, error) {
	body, err := json.Marshal(orReq)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Provider: OpenRouterName, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", "https://github.com/jackzampolin/amend")
	httpReq.Header.Set("X-Title", "Amend")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: OpenRouterName, Err: err}
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Provider: OpenRouterName, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Provider:   OpenRouterName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", bytes.TrimSpace(respBody)),
		}
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, &TransportError{Provider: OpenRouterName, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	// A 200 can still carry an API-level error or no choices at all.
	if orResp.Error != nil {
		code := fmt.Sprintf("%v", orResp.Error.Code)
		status := http.StatusBadRequest
		switch code {
		case "overloaded", "rate_limit_exceeded", "503", "502", "500":
			status = http.StatusServiceUnavailable
		case "401", "403":
			status = http.StatusUnauthorized
		}
		return nil, &TransportError{Provider: OpenRouterName, StatusCode: status, Err: fmt.Errorf("api error %s: %s", code, orResp.Error.Message)}
	}
	if len(orResp.Choices) == 0 {
		return nil, &TransportError{
			Provider:   OpenRouterName,
			StatusCode: http.StatusServiceUnavailable,
			Err:        fmt.Errorf("empty choices in response (model=%s, id=%s)", orResp.Model, orResp.ID),
		}
	}
	return &orResp, nil
}

// jitterFor bounds the random part of the backoff; retry-go panics on a
// zero jitter with RandomDelay.
func jitterFor(base time.Duration) time.Duration {
	if j := base / 2; j > time.Millisecond {
		return j
	}
	return time.Millisecond
}

// injectNonce appends a unique comment to the last user message.
func injectNonce(req *openRouterRequest, attempt int) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			req.Messages[i].Content += fmt.Sprintf("\n<!-- retry_%d_id: %s -->", attempt, uuid.New().String()[:16])
			return
		}
	}
}

func messageText(content any) (string, error) {
	switch v := content.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal content: %w", err)
		}
		return string(b), nil
	}
}
