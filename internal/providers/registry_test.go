package providers

import (
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get LLM", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockClient()

		r.RegisterLLM("test-llm", mock)

		client, err := r.GetLLM("test-llm")
		if err != nil {
			t.Fatalf("GetLLM() error = %v", err)
		}
		if client != mock {
			t.Error("got different client than registered")
		}
	})

	t.Run("get nonexistent LLM", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.GetLLM("nonexistent"); err == nil {
			t.Error("expected error for nonexistent LLM")
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterLLM("zeta", NewMockClient())
		r.RegisterLLM("alpha", NewMockClient())

		got := r.ListLLM()
		if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
			t.Errorf("ListLLM() = %v, want [alpha zeta]", got)
		}
	})

	t.Run("default selection", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Default(); err == nil {
			t.Error("expected error with no providers")
		}

		only := NewMockClient()
		r.RegisterLLM("only", only)
		if c, err := r.Default(); err != nil || c != only {
			t.Errorf("Default() = %v, %v; want the single registered client", c, err)
		}

		r.RegisterLLM("second", NewMockClient())
		if _, err := r.Default(); err == nil {
			t.Error("expected error when several clients and no default")
		}

		r.SetDefault("second")
		c, err := r.Resolve("")
		if err != nil {
			t.Fatalf("Resolve(\"\") error = %v", err)
		}
		if c != mustGet(t, r, "second") {
			t.Error("Resolve(\"\") should return the default client")
		}

		r.SetDefault("missing")
		if _, err := r.Default(); err == nil {
			t.Error("expected error for unavailable default")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.RegisterLLM("concurrent-llm", NewMockClient())
			}()
			go func() {
				defer wg.Done()
				r.GetLLM("concurrent-llm")
			}()
		}
		wg.Wait()
	})
}

func mustGet(t *testing.T, r *Registry, name string) LLMClient {
	t.Helper()
	c, err := r.GetLLM(name)
	if err != nil {
		t.Fatalf("GetLLM(%q) error = %v", name, err)
	}
	return c
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"gemini":     {Type: GeminiName, APIKey: "g-key", Enabled: true},
			"openai":     {Type: OpenAIName, APIKey: "o-key", Enabled: true},
			"openrouter": {Type: OpenRouterName, APIKey: "", Enabled: true},
			"disabled":   {Type: OpenAIName, APIKey: "x", Enabled: false},
			"bogus":      {Type: "carrier-pigeon", APIKey: "x", Enabled: true},
		},
		Default: "gemini",
	}

	r := NewRegistryFromConfig(cfg, nil)

	if got := r.ListLLM(); len(got) != 2 || got[0] != "gemini" || got[1] != "openai" {
		t.Fatalf("ListLLM() = %v, want [gemini openai]", got)
	}
	if r.DefaultName() != "gemini" {
		t.Errorf("DefaultName() = %q", r.DefaultName())
	}
	c, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if c.Name() != GeminiName {
		t.Errorf("Default().Name() = %q, want gemini", c.Name())
	}
}

func TestRegistry_Reload(t *testing.T) {
	base := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"openrouter": {Type: OpenRouterName, APIKey: "k1", Enabled: true},
		},
		Default: "openrouter",
	}
	r := NewRegistryFromConfig(base, nil)
	first := mustGet(t, r, "openrouter")

	t.Run("unchanged config keeps client", func(t *testing.T) {
		r.Reload(base)
		if mustGet(t, r, "openrouter") != first {
			t.Error("client should not be recreated for identical config")
		}
	})

	t.Run("changed config recreates client", func(t *testing.T) {
		changed := RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: OpenRouterName, APIKey: "k2", Enabled: true},
			},
			Default: "openrouter",
		}
		r.Reload(changed)
		if mustGet(t, r, "openrouter") == first {
			t.Error("client should be recreated when config changes")
		}
	})

	t.Run("rate limit wraps client", func(t *testing.T) {
		limited := RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: OpenRouterName, APIKey: "k2", Enabled: true, RateLimit: 30},
			},
		}
		r.Reload(limited)
		if _, ok := mustGet(t, r, "openrouter").(*RateLimitedClient); !ok {
			t.Error("expected RateLimitedClient when rate_limit is set")
		}
	})

	t.Run("removed provider is unregistered", func(t *testing.T) {
		r.RegisterLLM("manual", NewMockClient())
		r.Reload(RegistryConfig{})
		if r.HasLLM("openrouter") {
			t.Error("openrouter should be unregistered")
		}
		if !r.HasLLM("manual") {
			t.Error("manually registered clients should survive reload")
		}
	})
}
