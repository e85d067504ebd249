package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	GeminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string // Optional (tests)
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int // Retries after the first attempt (default: 3)
	RetryDelay   time.Duration
	HTTPClient   *http.Client // Optional (tests)
	Logger       *slog.Logger
}

// GeminiClient implements LLMClient using the Google Gen AI SDK.
type GeminiClient struct {
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
	client       *genai.Client
	logger       *slog.Logger
}

// NewGeminiClient creates a new Gemini client against the Gemini Developer API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = GeminiDefaultModel
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

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		client:       gc,
		logger:       cfg.Logger,
	}, nil
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Model returns the default model.
func (c *GeminiClient) Model() string {
	return c.defaultModel
}

// Chat sends a generateContent request.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
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
		Provider:  GeminiName,
		ModelUsed: model,
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ResponseFormat != nil {
		schema, err := innerSchema(req.ResponseFormat)
		if err != nil {
			return result.fail("schema_error", start, err)
		}
		cfg.ResponseMIMEType = "application/json"
		if schema != nil {
			cfg.ResponseJsonSchema = schema
		}
	}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	attempts := 0
	resp, err := retry.DoWithData(
		func() (*genai.GenerateContentResponse, error) {
			attempts++
			r, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
			if err != nil {
				return nil, mapGeminiError(err)
			}
			return r, nil
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
			c.logger.Debug("retrying gemini request", "attempt", n+1, "error", err)
		}),
	)
	result.Attempts = attempts
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Provider: GeminiName, Err: err}
		}
		return result.fail("http_error", start, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return result.fail("empty_response", start, &TransportError{
			Provider:   GeminiName,
			StatusCode: http.StatusBadRequest,
			Err:        errors.New(reason),
		})
	}

	content := resp.Text()
	result.Content = content
	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		result.PromptTokens = int(u.PromptTokenCount)
		result.CompletionTokens = int(u.CandidatesTokenCount)
		result.ReasoningTokens = int(u.ThoughtsTokenCount)
		result.TotalTokens = int(u.TotalTokenCount)
	}

	if req.ResponseFormat != nil {
		parsed, err := decodeStructured(GeminiName, req, content)
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

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{
			Provider:   GeminiName,
			StatusCode: apiErr.Code,
			Err:        fmt.Errorf("%s: %s", apiErr.Status, apiErr.Message),
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &TransportError{
			Provider:   GeminiName,
			StatusCode: apiErrPtr.Code,
			Err:        fmt.Errorf("%s: %s", apiErrPtr.Status, apiErrPtr.Message),
		}
	}
	return &TransportError{Provider: GeminiName, Err: err}
}
