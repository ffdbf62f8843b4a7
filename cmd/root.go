// Package cmd defines the supportdesk command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supportdesk/supportdesk/internal/log"
)

var (
	flagLogLevel string
	flagLogJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "supportdesk",
	Short: "Customer support chat backend",
	Long: `supportdesk routes customer messages to specialized AI agents
(support, order, billing) and streams their replies while persisting
conversations in PostgreSQL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false,
		"emit logs as JSON")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() log.Logger {
	return log.New(log.Config{
		Level: parseLogLevel(flagLogLevel),
		JSON:  flagLogJSON,
	})
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
