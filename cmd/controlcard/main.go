package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/controlcard/internal/cli"
	"github.com/example/controlcard/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "controlcard",
		Short:   "Rally control-card data entry",
		Version: version.String(),
		Long: `controlcard records a rally crew's control card: a grid of checkpoint rows
filled by hand or by scanning QR codes, then submitted once to the organiser.`,
		PersistentPreRunE: cli.Bootstrap,
		SilenceUsage:      true,
	}
	cli.RegisterGlobalFlags(rootCmd)

	// Card commands
	rootCmd.AddCommand(cli.RedeemCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.DeleteCmd())

	// Editing
	rootCmd.AddCommand(cli.EditCmd())
	rootCmd.AddCommand(cli.SetCmd())
	rootCmd.AddCommand(cli.ScanCmd())
	rootCmd.AddCommand(cli.FinalizeCmd())

	rootCmd.AddCommand(cli.ConfigCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	cli.Teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
