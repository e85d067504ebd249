package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/agent"
	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/examples"
	"github.com/jackzampolin/amend/internal/svcctx"
)

// errRunsFailed is returned by a batch correction in which any run failed.
var errRunsFailed = errors.New("correction runs failed")

var (
	correctExample     int
	correctFile        string
	correctProvider    string
	correctStrict      bool
	correctConcurrency int
)

var correctCmd = &cobra.Command{
	Use:   "correct [text]",
	Short: "Correct a piece of text",
	Long: `Run the correction agent locally and print the outcome with its trace.

Input comes from exactly one of: the text argument, --example N (see
'amend examples'), or --file F with one input per line ('-' reads stdin).
File input runs every line in its own run, --concurrency at a time.

Examples:
  amend correct "I havv a speling eror"
  amend correct --example 5 -o text
  amend correct --file quotes.txt --provider openai -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := 0
		for _, set := range []bool{len(args) == 1, correctExample != 0, correctFile != ""} {
			if set {
				sources++
			}
		}
		if sources != 1 {
			return errors.New("give exactly one of: text argument, --example or --file")
		}

		services, err := loadServices()
		if err != nil {
			return err
		}

		opts := svcctx.RunOptions{Provider: correctProvider}
		if cmd.Flags().Changed("strict-fields") {
			opts.StrictFields = &correctStrict
		}
		orch, err := services.Orchestrator(opts)
		if err != nil {
			return err
		}

		if correctFile != "" {
			texts, err := readLines(correctFile)
			if err != nil {
				return err
			}
			concurrency := correctConcurrency
			if !cmd.Flags().Changed("concurrency") {
				concurrency = services.ConfigManager.Get().Agent.Concurrency
			}

			results := orch.RunBatch(cmd.Context(), texts, concurrency)
			if err := api.Output(results); err != nil {
				return err
			}
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errRunsFailed, failed, len(results))
			}
			return nil
		}

		text := ""
		if len(args) == 1 {
			text = args[0]
		} else {
			ex, err := examples.Get(correctExample)
			if err != nil {
				return err
			}
			text = ex.Text
		}

		out, err := orch.Run(cmd.Context(), text)
		if err != nil {
			var runErr *agent.RunError
			if errors.As(err, &runErr) && len(runErr.Trace) > 0 {
				fmt.Fprintln(os.Stderr, "Trace before failure:")
				for _, s := range runErr.Trace {
					fmt.Fprintf(os.Stderr, "[%s]\n%s\n\n", s.Name, s.Content)
				}
			}
			return err
		}
		return api.Output(out)
	},
}

// readLines returns the non-blank lines of path, or of stdin for "-".
func readLines(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.New("input has no lines to correct")
	}
	return lines, nil
}

func init() {
	correctCmd.Flags().IntVar(&correctExample, "example", 0, "run a built-in example (1-7)")
	correctCmd.Flags().StringVar(&correctFile, "file", "", "correct each line of a file ('-' for stdin)")
	correctCmd.Flags().StringVar(&correctProvider, "provider", "", "LLM provider (default: defaults.llm_provider)")
	correctCmd.Flags().BoolVar(&correctStrict, "strict-fields", false, "fail when a tool response omits a field")
	correctCmd.Flags().IntVar(&correctConcurrency, "concurrency", 4, "parallel runs for --file (default: agent.concurrency)")

	rootCmd.AddCommand(correctCmd)
}
