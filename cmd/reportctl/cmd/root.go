// Package cmd implements the reportctl operator CLI.
package cmd

import (
	"encoding/json"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/config"
	"github.com/spec-kit/monitor-report/internal/observability"
)

var (
	// Version is set at build time
	Version = "dev"

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Operator CLI for the monitoring report service",
	Long: `reportctl performs offline maintenance for the monitoring report service.

It can hash passwords for manual account setup, decode tokens for debugging,
apply database migrations and seed development data.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level for database commands")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() (*zap.Logger, error) {
	return observability.NewLogger(config.LoggerConfig{Level: logLevel}, "development")
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
