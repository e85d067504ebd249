package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClient_Chat(t *testing.T) {
	t.Run("structured output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			rf, _ := body["response_format"].(map[string]any)
			if rf["type"] != "json_schema" {
				t.Errorf("response_format = %v, want json_schema", body["response_format"])
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1700000000,
				"model":   "gpt-4o-mini",
				"choices": []map[string]any{
					{
						"index":         0,
						"finish_reason": "stop",
						"message": map[string]any{
							"role":    "assistant",
							"content": `{"is_correct":true,"confidence":70}`,
						},
					},
				},
				"usage": map[string]any{
					"prompt_tokens":     20,
					"completion_tokens": 6,
					"total_tokens":      26,
				},
			})
		}))
		defer server.Close()

		client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "verify"}},
			ResponseFormat: verdictFormat(),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if string(result.ParsedJSON) != `{"is_correct":true,"confidence":70}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
		if result.TotalTokens != 26 {
			t.Errorf("TotalTokens = %d, want 26", result.TotalTokens)
		}
	})

	t.Run("status error maps to transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"},
			})
		}))
		defer server.Close()

		client := NewOpenAIClient(OpenAIConfig{APIKey: "bad", BaseURL: server.URL})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "hi"}},
		})

		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want TransportError", err)
		}
		if te.StatusCode != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want 401", te.StatusCode)
		}
	})
}
