package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/amend/internal/agent"
	"github.com/jackzampolin/amend/internal/examples"
	"github.com/jackzampolin/amend/internal/prompts/analyze"
	"github.com/jackzampolin/amend/internal/prompts/detect"
	"github.com/jackzampolin/amend/internal/prompts/fix"
	"github.com/jackzampolin/amend/internal/providers"
	"github.com/jackzampolin/amend/internal/svcctx"
	"github.com/jackzampolin/amend/internal/testutil"
)

type testEnv struct {
	server   *httptest.Server
	services *svcctx.Services
	mock     *providers.MockClient
}

// newTestEnv serves every endpoint against a mock provider registered as
// the default, with call recording under a temporary home.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mock := providers.NewMockClient()
	services := testutil.NewServices(t, mock)
	if services.LLMCallStore == nil {
		t.Fatal("call recording should be on by default")
	}

	mux := http.NewServeMux()
	if err := NewRegistry().Mount(mux, nil); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	}))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, services: services, mock: mock}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, body)
	}
}

func spellCheckResponses(m *providers.MockClient) {
	m.RespondJSON(analyze.SchemaName, map[string]any{
		"needs_reconstruction": false,
		"needs_grammar_fix":    false,
		"needs_spell_check":    true,
		"severity":             "low",
		"reasoning":            "typos",
	}).RespondJSON(detect.SchemaName, map[string]any{
		"has_errors": true,
		"errors": []map[string]any{
			{"error_text": "havv", "correct_spelling": "have", "explanation": "typo"},
		},
	}).RespondJSON(fix.SchemaName, map[string]any{
		"corrected_text": "I have a cat",
		"changes":        []string{"havv -> have"},
	})
}

func TestCorrectEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		spellCheckResponses(env.mock)

		resp := env.do(t, "POST", "/api/correct", CorrectRequest{Text: "I havv a cat"})
		expectStatus(t, resp, http.StatusOK)

		out := decode[agent.Outcome](t, resp)
		if out.FinalText != "I have a cat" {
			t.Errorf("FinalText = %q", out.FinalText)
		}
		if out.Method != agent.MethodSpellCheck {
			t.Errorf("Method = %q", out.Method)
		}
		want := []string{agent.StepObserve, agent.StepAnalyze, agent.StepDecide, agent.StepDetect, agent.StepFix, agent.StepComplete}
		if diff := cmp.Diff(want, agent.StepNames(out.Steps)); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("transport failure keeps partial trace", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.Fail(analyze.SchemaName, &providers.TransportError{Provider: "mock", StatusCode: 503, Err: errors.New("unavailable")})

		resp := env.do(t, "POST", "/api/correct", CorrectRequest{Text: "hello"})
		expectStatus(t, resp, http.StatusBadGateway)

		body := decode[CorrectErrorResponse](t, resp)
		if body.Kind != KindTransport || body.Step != agent.StepAnalyze {
			t.Errorf("Kind = %q, Step = %q", body.Kind, body.Step)
		}
		if diff := cmp.Diff([]string{agent.StepObserve}, agent.StepNames(body.Trace)); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
		if body.RunID == "" {
			t.Error("RunID should be reported")
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.Respond(analyze.SchemaName, "not json at all")

		resp := env.do(t, "POST", "/api/correct", CorrectRequest{Text: "hello"})
		expectStatus(t, resp, http.StatusUnprocessableEntity)
		if body := decode[CorrectErrorResponse](t, resp); body.Kind != KindMalformed {
			t.Errorf("Kind = %q, want %q", body.Kind, KindMalformed)
		}
	})

	t.Run("strict fields reports missing field", func(t *testing.T) {
		env := newTestEnv(t)
		strict := true
		env.mock.RespondJSON(analyze.SchemaName, map[string]any{
			"needs_reconstruction": false,
			"needs_grammar_fix":    false,
			"needs_spell_check":    true,
			"severity":             "low",
			"reasoning":            "typos",
		}).RespondJSON(detect.SchemaName, map[string]any{"errors": []any{}})

		resp := env.do(t, "POST", "/api/correct", CorrectRequest{Text: "hello", StrictFields: &strict})
		expectStatus(t, resp, http.StatusUnprocessableEntity)
		body := decode[CorrectErrorResponse](t, resp)
		if body.Kind != KindMissingField || body.Step != agent.StepDetect {
			t.Errorf("Kind = %q, Step = %q", body.Kind, body.Step)
		}
	})

	t.Run("bad request body", func(t *testing.T) {
		env := newTestEnv(t)
		resp := env.do(t, "POST", "/api/correct", "{not json")
		expectStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("unknown provider", func(t *testing.T) {
		env := newTestEnv(t)
		resp := env.do(t, "POST", "/api/correct", CorrectRequest{Text: "hello", Provider: "nope"})
		expectStatus(t, resp, http.StatusBadRequest)
		if env.mock.RequestCount() != 0 {
			t.Error("no LLM call should be made for an unknown provider")
		}
	})
}

func TestCorrectBatchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	spellCheckResponses(env.mock)

	resp := env.do(t, "POST", "/api/correct/batch", map[string]any{"texts": []string{"I havv a cat", "I havv a cat"}})
	expectStatus(t, resp, http.StatusOK)

	body := decode[CorrectBatchResponse](t, resp)
	if body.Succeeded != 2 || body.Failed != 0 {
		t.Errorf("Succeeded = %d, Failed = %d", body.Succeeded, body.Failed)
	}
	if len(body.Results) != 2 {
		t.Fatalf("len(Results) = %d", len(body.Results))
	}
}

func TestListExamplesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/api/examples", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decode[ExamplesResponse](t, resp)
	if diff := cmp.Diff(examples.All(), body.Examples); diff != "" {
		t.Errorf("examples mismatch (-want +got):\n%s", diff)
	}
}

func TestListProvidersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/api/providers", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decode[ProvidersResponse](t, resp)
	if body.Default != "mock" {
		t.Errorf("Default = %q, want mock", body.Default)
	}
	if len(body.Providers) != 1 || body.Providers[0].Name != "mock" || !body.Providers[0].Default {
		t.Errorf("Providers = %+v", body.Providers)
	}
}

func TestPromptEndpoints(t *testing.T) {
	env := newTestEnv(t)
	key := analyze.SystemPromptKey

	resp := env.do(t, "GET", "/api/prompts", nil)
	expectStatus(t, resp, http.StatusOK)
	list := decode[PromptsListResponse](t, resp)
	if len(list.Prompts) == 0 {
		t.Fatal("expected registered prompts")
	}

	resp = env.do(t, "GET", "/api/prompts/"+key, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[PromptResponse](t, resp); got.IsOverride || got.Text != analyze.SystemPrompt() {
		t.Errorf("embedded prompt: IsOverride = %v", got.IsOverride)
	}

	resp = env.do(t, "PUT", "/api/prompts/"+key, SetPromptRequest{Text: "Be brief."})
	expectStatus(t, resp, http.StatusOK)

	resp = env.do(t, "GET", "/api/prompts/"+key, nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[PromptResponse](t, resp)
	if !got.IsOverride || got.Text != "Be brief." || got.EmbeddedText != analyze.SystemPrompt() {
		t.Errorf("override not applied: %+v", got)
	}

	resp = env.do(t, "DELETE", "/api/prompts/"+key, nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = env.do(t, "GET", "/api/prompts/"+key, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[PromptResponse](t, resp); got.IsOverride {
		t.Error("override should be cleared")
	}

	resp = env.do(t, "PUT", "/api/prompts/tools.nope.system", SetPromptRequest{Text: "x"})
	expectStatus(t, resp, http.StatusNotFound)

	resp = env.do(t, "PUT", "/api/prompts/"+key, SetPromptRequest{Text: "  "})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestLLMCallEndpoints(t *testing.T) {
	env := newTestEnv(t)
	spellCheckResponses(env.mock)

	resp := env.do(t, "POST", "/api/correct", CorrectRequest{Text: "I havv a cat"})
	expectStatus(t, resp, http.StatusOK)
	out := decode[agent.Outcome](t, resp)

	resp = env.do(t, "GET", "/api/llmcalls?run_id="+out.RunID, nil)
	expectStatus(t, resp, http.StatusOK)
	list := decode[LLMCallsResponse](t, resp)
	if list.Total != 3 {
		t.Fatalf("Total = %d, want 3", list.Total)
	}

	resp = env.do(t, "GET", "/api/llmcalls/"+list.Calls[0].ID, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[LLMCallResponse](t, resp); got.Call == nil || got.Call.ID != list.Calls[0].ID {
		t.Errorf("Get returned %+v", got.Call)
	}

	resp = env.do(t, "GET", "/api/llmcalls/counts", nil)
	expectStatus(t, resp, http.StatusOK)
	counts := decode[LLMCallCountsResponse](t, resp)
	if counts.Counts[analyze.SystemPromptKey] != 1 {
		t.Errorf("Counts = %v", counts.Counts)
	}

	resp = env.do(t, "GET", "/api/llmcalls?success=false", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[LLMCallsResponse](t, resp); got.Total != 0 {
		t.Errorf("failed calls = %d, want 0", got.Total)
	}

	resp = env.do(t, "GET", "/api/metrics/summary?run_id="+out.RunID, nil)
	expectStatus(t, resp, http.StatusOK)
	summary := decode[MetricsSummaryResponse](t, resp)
	if summary.Overall.Count != 3 || summary.Overall.Runs != 1 || len(summary.ByPromptKey) != 3 {
		t.Errorf("metrics summary = %+v", summary.Overall)
	}

	t.Run("bad filters", func(t *testing.T) {
		for _, q := range []string{"success=maybe", "limit=x", "offset=x", "after=yesterday"} {
			resp := env.do(t, "GET", "/api/llmcalls?"+q, nil)
			expectStatus(t, resp, http.StatusBadRequest)
		}
	})

	t.Run("missing call", func(t *testing.T) {
		resp := env.do(t, "GET", "/api/llmcalls/does-not-exist", nil)
		expectStatus(t, resp, http.StatusNotFound)
	})

	t.Run("recording disabled", func(t *testing.T) {
		env := newTestEnv(t)
		env.services.LLMCallStore = nil
		resp := env.do(t, "GET", "/api/llmcalls", nil)
		expectStatus(t, resp, http.StatusNotFound)
	})
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/api/settings?prefix=server.", nil)
	expectStatus(t, resp, http.StatusOK)
	list := decode[SettingsResponse](t, resp)
	var keys []string
	for _, e := range list.Settings {
		keys = append(keys, e.Key)
	}
	if diff := cmp.Diff([]string{"server.host", "server.port"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	resp = env.do(t, "PUT", "/api/settings/server.port", UpdateSettingRequest{Value: 9090})
	expectStatus(t, resp, http.StatusOK)
	if port := env.services.ConfigManager.Get().Server.Port; port != 9090 {
		t.Errorf("Server.Port = %d after update, want 9090", port)
	}

	resp = env.do(t, "GET", "/api/settings/server.port", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[SettingResponse](t, resp); got.Entry == nil || got.Entry.Description == "" {
		t.Errorf("Entry = %+v", got.Entry)
	}

	resp = env.do(t, "POST", "/api/settings/reset/server.port", nil)
	expectStatus(t, resp, http.StatusOK)
	if port := env.services.ConfigManager.Get().Server.Port; port != 8480 {
		t.Errorf("Server.Port = %d after reset, want 8480", port)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"invalid key", "GET", "/api/settings/bad$key", nil, http.StatusBadRequest},
		{"unset key", "GET", "/api/settings/nothing.here", nil, http.StatusNotFound},
		{"missing value", "PUT", "/api/settings/server.host", map[string]any{}, http.StatusBadRequest},
		{"no default", "POST", "/api/settings/reset/custom.key", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			expectStatus(t, resp, tt.want)
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/status", nil)
	expectStatus(t, resp, http.StatusOK)

	status := decode[StatusResponse](t, resp)
	if diff := cmp.Diff([]string{"mock"}, status.Providers); diff != "" {
		t.Errorf("providers mismatch (-want +got):\n%s", diff)
	}
	if !status.RecordingCalls {
		t.Error("RecordingCalls should be true")
	}
}

func TestClassifyRunError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"transport", &providers.TransportError{Provider: "p", Err: errors.New("x")}, http.StatusBadGateway, KindTransport},
		{"malformed", &providers.MalformedResponseError{Provider: "p", Err: errors.New("x")}, http.StatusUnprocessableEntity, KindMalformed},
		{"other", errors.New("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := classifyRunError(tt.err)
			if status != tt.status || kind != tt.kind {
				t.Errorf("classifyRunError() = %d, %q; want %d, %q", status, kind, tt.status, tt.kind)
			}
		})
	}
}
