package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
//
// Structured requests are answered from Responses, keyed by the request's
// schema name, so a test can script every tool of a run independently of
// call order. Errors keyed the same way are returned instead of a response.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	Responses    map[string]string // schema name -> raw response content
	Errors       map[string]error  // schema name -> error to return

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	calls        []string
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
		Responses:    make(map[string]string),
		Errors:       make(map[string]error),
	}
}

// Respond scripts the response content for a schema.
func (c *MockClient) Respond(schema string, content string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Responses == nil {
		c.Responses = make(map[string]string)
	}
	c.Responses[schema] = content
	return c
}

// RespondJSON scripts a response by marshaling v.
func (c *MockClient) RespondJSON(schema string, v any) *MockClient {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mock: marshal %s response: %v", schema, err))
	}
	return c.Respond(schema, string(b))
}

// Fail scripts an error for a schema.
func (c *MockClient) Fail(schema string, err error) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Errors == nil {
		c.Errors = make(map[string]error)
	}
	c.Errors[schema] = err
	return c
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns the number of requests received.
func (c *MockClient) RequestCount() int {
	return int(c.requestCount.Load())
}

// Calls returns the schema names requested, in order.
func (c *MockClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)
	schema := req.SchemaName()

	c.mu.Lock()
	c.calls = append(c.calls, schema)
	scriptedErr, hasErr := c.Errors[schema]
	content, hasContent := c.Responses[schema]
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail {
		return result.fail("mock_failure", start, &TransportError{Provider: MockClientName, Err: errors.New("mock client configured to fail")})
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return result.fail("mock_failure", start, &TransportError{
			Provider: MockClientName,
			Err:      fmt.Errorf("mock client failed after %d requests", c.FailAfter),
		})
	}
	if hasErr {
		return result.fail("mock_failure", start, scriptedErr)
	}

	if c.Latency > 0 {
		timer := time.NewTimer(c.Latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return result.fail("context_cancelled", start, &TransportError{Provider: MockClientName, Err: ctx.Err()})
		}
	}

	if !hasContent {
		content = c.ResponseText
	}
	result.Content = content

	// Simulate token counting
	for _, m := range req.Messages {
		result.PromptTokens += len(m.Content) / 4
	}
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens

	if req.ResponseFormat != nil {
		if !hasContent {
			return result.fail("json_parse", start, &MalformedResponseError{
				Provider: MockClientName,
				Schema:   schema,
				Content:  content,
				Err:      fmt.Errorf("no scripted response for schema %q", schema),
			})
		}
		parsed, err := decodeStructured(MockClientName, req, content)
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
