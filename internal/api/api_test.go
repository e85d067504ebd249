package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type greeting struct {
	Hello string `json:"hello" yaml:"hello"`
}

func (g greeting) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "hello, %s\n", g.Hello)
	return err
}

func TestOutputTo(t *testing.T) {
	tests := []struct {
		format OutputFormat
		data   any
		want   string
	}{
		{OutputFormatJSON, greeting{Hello: "world"}, "{\n  \"hello\": \"world\"\n}\n"},
		{OutputFormatYAML, greeting{Hello: "world"}, "hello: world\n"},
		{OutputFormatText, greeting{Hello: "world"}, "hello, world\n"},
		{OutputFormatText, map[string]int{"n": 1}, "n: 1\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := OutputTo(&buf, tt.format, tt.data); err != nil {
				t.Fatalf("OutputTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("OutputTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := OutputTo(io.Discard, "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("")

	if err := SetOutputFormat("json"); err != nil || GetOutputFormat() != OutputFormatJSON {
		t.Errorf("SetOutputFormat(json) = %v, format %s", err, GetOutputFormat())
	}
	if err := SetOutputFormat("toml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := SetOutputFormat(""); err != nil || GetOutputFormat() != DefaultOutput {
		t.Errorf("SetOutputFormat(\"\") should restore the default")
	}
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("missing content type on %s", r.Method)
			}
			w.Write([]byte(`{"hello":"world"}`))
		case "/fail":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":"provider unavailable","run_id":"r1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not here"))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	var got greeting
	if err := client.Get(ctx, "/ok", &got); err != nil || got.Hello != "world" {
		t.Errorf("Get() = %+v, %v", got, err)
	}
	if err := client.Post(ctx, "/ok", map[string]string{"a": "b"}, &got); err != nil {
		t.Errorf("Post() error = %v", err)
	}

	err := client.Get(ctx, "/fail", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "provider unavailable" {
		t.Errorf("Error = %+v", apiErr)
	}
	if !strings.Contains(string(apiErr.Body), `"run_id":"r1"`) {
		t.Errorf("Body = %s", apiErr.Body)
	}

	err = client.Delete(ctx, "/missing")
	if !errors.As(err, &apiErr) || apiErr.Message != "not here" {
		t.Errorf("Delete() error = %v", err)
	}
}

type stubEndpoint struct {
	method, path  string
	needsProvider bool
}

func (e stubEndpoint) Route() (string, string, http.HandlerFunc) {
	return e.method, e.path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (e stubEndpoint) RequiresProvider() bool { return e.needsProvider }

func (e stubEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{Use: strings.Trim(strings.ReplaceAll(e.path, "/", "-"), "-")}
}

func TestRegistry_Mount(t *testing.T) {
	t.Run("provider routes are wrapped", func(t *testing.T) {
		reg := NewRegistry(stubEndpoint{method: "GET", path: "/health"})
		reg.Group("correction", "", stubEndpoint{method: "POST", path: "/api/correct", needsProvider: true})

		mux := http.NewServeMux()
		blocked := func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}
		if err := reg.Mount(mux, blocked); err != nil {
			t.Fatalf("Mount() error = %v", err)
		}

		tests := []struct {
			method, path string
			want         int
		}{
			{"GET", "/health", http.StatusNoContent},
			{"POST", "/api/correct", http.StatusServiceUnavailable},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
		}
	})

	t.Run("duplicate pattern is an error", func(t *testing.T) {
		reg := NewRegistry(stubEndpoint{method: "GET", path: "/status"})
		reg.Group("more", "", stubEndpoint{method: "GET", path: "/status"})

		err := reg.Mount(http.NewServeMux(), nil)
		if err == nil || !strings.Contains(err.Error(), "GET /status") {
			t.Fatalf("Mount() error = %v, want duplicate route error", err)
		}
	})
}

func TestRegistry_Command(t *testing.T) {
	reg := NewRegistry(stubEndpoint{method: "GET", path: "/health"})
	reg.Group("prompts", "Prompt commands", stubEndpoint{method: "GET", path: "/api/prompts"})
	reg.Group("prompts", "", stubEndpoint{method: "DELETE", path: "/api/prompts/x"})

	cmd := reg.Command(func() string { return "http://localhost" })
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "health,prompts" {
		t.Fatalf("subcommands = %v, want [health prompts]", names)
	}

	prompts, _, err := cmd.Find([]string{"prompts"})
	if err != nil {
		t.Fatalf("Find(prompts) error = %v", err)
	}
	if got := len(prompts.Commands()); got != 2 {
		t.Errorf("prompts has %d subcommands, want 2", got)
	}
	if got := len(reg.Endpoints()); got != 3 {
		t.Errorf("Endpoints() = %d, want 3", got)
	}
}
