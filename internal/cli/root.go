// Package cli wires the unistore demo commands.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
	Addr      string
	LogLevel  string // "debug" | "info"
}

// ValidLogLevels defines the allowed log levels.
var ValidLogLevels = []string{"debug", "info"}

// NewRootCommand creates the root command for the unistore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "unistore",
		Short: "unistore - a predictable state container with a live view",
		Long:  "A single-store state container serving live-rendered components over websockets.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidLogLevel(opts.LogLevel) {
				return fmt.Errorf("invalid log level %q: must be one of %v", opts.LogLevel, ValidLogLevels)
			}
			// Optional .env, the environment itself still applies
			_ = godotenv.Load()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".", "directory containing app_config.yaml")
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "", "listen address override (host:port)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// isValidLogLevel checks if the level is one of the allowed values.
func isValidLogLevel(level string) bool {
	for _, l := range ValidLogLevels {
		if l == level {
			return true
		}
	}
	return false
}
