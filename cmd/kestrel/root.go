package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	log "github.com/kestreldb/kestrel/internal/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:           "kestrel",
		Short:         "kestrel is a schema-governed query engine over a property graph",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", `verbosity of logging ("trace", "debug", "info", "warn", "error")`)
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", `format of logs ("auto", "console", "json")`)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func setupLogging(level, format string) error {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("unknown log level %q: %w", level, err)
	}

	var logger zerolog.Logger
	switch format {
	case "json":
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "console", "auto":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	log.SetGlobalLogger(logger.Level(parsed))
	return nil
}
