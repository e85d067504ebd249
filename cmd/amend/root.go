package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/config"
	"github.com/jackzampolin/amend/internal/home"
	"github.com/jackzampolin/amend/internal/svcctx"
	"github.com/jackzampolin/amend/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "amend",
	Short: "LLM agent that repairs misspelled and garbled text",
	Long: `Amend runs a small correction agent over a piece of text.

Each run asks a language model to triage the input, then either
reconstructs a garbled or misremembered phrase (and verifies it), or
detects and fixes spelling errors. Every step is recorded in a trace.

Examples:
  amend correct "I havv a speling eror"
  amend correct --example 4 -o text
  amend correct --file notes.txt --concurrency 8
  amend serve`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.amend/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "amend home directory (default: ~/.amend)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or text",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "debug logging (overrides logging.level)",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadServices resolves the home directory and configuration and wires
// the shared services every local command runs against.
func loadServices() (*svcctx.Services, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}

	logger := newLogger(cm.Get().Logging.Level)
	cm.SetLogger(logger)
	slog.SetDefault(logger)

	return svcctx.New(cm, h, logger), nil
}

// newLogger writes text logs to stderr so stdout carries only command output.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "unknown logging.level %q, using info\n", level)
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
