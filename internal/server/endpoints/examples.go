package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/examples"
)

// ExamplesResponse lists the sample inputs.
type ExamplesResponse struct {
	Examples []examples.Example `json:"examples"`
}

// ListExamplesEndpoint handles GET /api/examples.
type ListExamplesEndpoint struct{}

func (e *ListExamplesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/examples", e.handler
}

func (e *ListExamplesEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		List example inputs
//	@Tags			correct
//	@Produce		json
//	@Success		200	{object}	ExamplesResponse
//	@Router			/api/examples [get]
func (e *ListExamplesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ExamplesResponse{Examples: examples.All()})
}

func (e *ListExamplesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List example inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ExamplesResponse
			if err := client.Get(cmd.Context(), "/api/examples", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
