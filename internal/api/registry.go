package api

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// Registry collects endpoints for both the server mux and the CLI. Endpoints
// added with Register become direct "api" subcommands; those added with
// Group sit under a named subcommand.
type Registry struct {
	top    []Endpoint
	groups []group
}

type group struct {
	use       string
	short     string
	endpoints []Endpoint
}

// NewRegistry creates a registry holding eps at the top level.
func NewRegistry(eps ...Endpoint) *Registry {
	r := &Registry{}
	r.Register(eps...)
	return r
}

// Register adds top-level endpoints.
func (r *Registry) Register(eps ...Endpoint) {
	r.top = append(r.top, eps...)
}

// Group adds endpoints under the "api <use>" subcommand. Calling Group again
// with the same name appends to the existing group.
func (r *Registry) Group(use, short string, eps ...Endpoint) {
	for i := range r.groups {
		if r.groups[i].use == use {
			r.groups[i].endpoints = append(r.groups[i].endpoints, eps...)
			return
		}
	}
	r.groups = append(r.groups, group{use: use, short: short, endpoints: eps})
}

// Endpoints returns every endpoint, top level first, then each group in the
// order it was added.
func (r *Registry) Endpoints() []Endpoint {
	all := append([]Endpoint(nil), r.top...)
	for _, g := range r.groups {
		all = append(all, g.endpoints...)
	}
	return all
}

// Mount registers every route on mux. Routes that call a language model are
// wrapped with requireProvider when it is non-nil. Two endpoints with the
// same pattern are an error rather than a ServeMux panic.
func (r *Registry) Mount(mux *http.ServeMux, requireProvider Middleware) error {
	seen := make(map[string]struct{})
	for _, ep := range r.Endpoints() {
		pattern := Pattern(ep)
		if _, dup := seen[pattern]; dup {
			return fmt.Errorf("duplicate route %q", pattern)
		}
		seen[pattern] = struct{}{}

		_, _, handler := ep.Route()
		if ep.RequiresProvider() && requireProvider != nil {
			handler = requireProvider(handler)
		}
		mux.HandleFunc(pattern, handler)
	}
	return nil
}

// Command builds the "api" command tree.
func (r *Registry) Command(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call a running amend server (amend serve) over HTTP.
Use --server to point at a server other than the default.

Examples:
  amend api health
  amend api correct "I havv a speling eror"
  amend api llmcalls list --limit 5`,
	}

	for _, ep := range r.top {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, g := range r.groups {
		groupCmd := &cobra.Command{Use: g.use, Short: g.short}
		for _, ep := range g.endpoints {
			groupCmd.AddCommand(ep.Command(getServerURL))
		}
		apiCmd.AddCommand(groupCmd)
	}
	return apiCmd
}
