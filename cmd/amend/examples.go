package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/examples"
)

// exampleList renders as a numbered list in text output.
type exampleList []examples.Example

func (l exampleList) RenderText(w io.Writer) error {
	for _, ex := range l {
		if _, err := fmt.Fprintf(w, "%d. %-16s %q\n", ex.Number, ex.Category, ex.Text); err != nil {
			return err
		}
	}
	return nil
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List the built-in example inputs",
	Long: `List the built-in example inputs, each labelled with the defect it
demonstrates. Run one with 'amend correct --example N'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(exampleList(examples.All()))
	},
}

func init() {
	rootCmd.AddCommand(examplesCmd)
}
