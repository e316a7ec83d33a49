// Package cli provides CLI commands for the controlcard application.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/controlcard/internal/config"
	"github.com/example/controlcard/internal/logging"
	"github.com/example/controlcard/internal/wire"
)

var (
	homeFlag    string
	verboseFlag bool
)

// RegisterGlobalFlags adds the flags every command understands.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&homeFlag, "home", "", "configuration directory (default $"+config.EnvHome+" or ~/.controlcard)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")
}

// Bootstrap loads configuration and the logger for the current invocation.
// Should be called once at CLI startup in PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, args []string) error {
	home, err := resolveHome()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(home)
	if err != nil {
		return err
	}
	if verboseFlag {
		cfg.Logging.Level = "debug"
	}
	// The editor owns the terminal; log lines go to a file instead.
	if cmd.Name() == "edit" && isTerminalOutput(cfg.Logging.Output) {
		cfg.Logging.Output = filepath.Join(home, "controlcard.log")
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	wire.Configure(cfg, logger)
	return nil
}

// Teardown flushes the logger and closes the database.
// Should be called once after the root command returns.
func Teardown() {
	_ = wire.Logger().Sync()
	_ = wire.Close()
}

func resolveHome() (string, error) {
	if homeFlag != "" {
		return homeFlag, nil
	}
	return config.Home()
}

func isTerminalOutput(output string) bool {
	return output == "" || output == "stderr" || output == "stdout"
}
