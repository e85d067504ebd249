package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint is one server operation, exposed twice: as an HTTP route on the
// server and as an "amend api" subcommand that calls that route.
type Endpoint interface {
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresProvider reports whether the handler calls a language model.
	// Such routes answer 503 while no provider is registered.
	RequiresProvider() bool

	// Command builds the CLI side. getServerURL is read when the command
	// runs, after flags are parsed.
	Command(getServerURL func() string) *cobra.Command
}

// Middleware wraps a handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Pattern returns the ServeMux pattern for ep, e.g. "GET /api/llmcalls/{id}".
func Pattern(ep Endpoint) string {
	method, path, _ := ep.Route()
	return method + " " + path
}
