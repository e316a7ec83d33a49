package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/controlcard/internal/adapters/scanner"
	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/ports/secondary"
	"github.com/example/controlcard/internal/wire"
)

// RedeemCmd returns the redeem command.
func RedeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem [code]",
		Short: "Redeem an entry code for a new control card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CardAdapter().Redeem(cmd.Context(), args[0])
		},
	}
}

// ListCmd returns the list command.
func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cards by competitor number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CardAdapter().List(cmd.Context())
		},
	}
}

// ShowCmd returns the show command.
func ShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [card]",
		Short: "Show a card and its grid",
		Long:  "Show a card and its grid. [card] is a card id or a rally code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CardAdapter().Show(cmd.Context(), args[0])
		},
	}
}

// DeleteCmd returns the delete command.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [card]",
		Short: "Delete a card and its grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CardAdapter().Delete(cmd.Context(), args[0])
		},
	}
}

// SetCmd returns the set command.
func SetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [card] [row] [col] [char]",
		Short: "Write one cell manually",
		Long: `Write one cell manually. Only the first character of [char] is kept.
Pass "" as [char] to clear the cell. Scan-locked cells cannot be changed.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1], args[2])
			if err != nil {
				return err
			}
			return wire.CardAdapter().Set(cmd.Context(), args[0], pos, args[3])
		},
	}
}

// ScanCmd returns the scan command.
func ScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [card] [payload...]",
		Short: "Apply decoded scan payloads to a card",
		Long: `Apply decoded scan payloads ("row:value") to a card in order.
Pass "-" to read one payload per line from stdin, e.g. from a keyboard-wedge scanner.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads := args[1:]
			var source secondary.ScanSource
			if len(payloads) == 1 && payloads[0] == "-" {
				source = scanner.NewLineSource(os.Stdin)
				payloads = nil
			}
			return wire.CardAdapter().Scan(cmd.Context(), args[0], payloads, source)
		},
	}
}

// FinalizeCmd returns the finalize command.
func FinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalize [card]",
		Short: "Submit a card to the backend and lock it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return wire.CardAdapter().Finalize(cmd.Context(), args[0], yes)
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func parsePosition(rowArg, colArg string) (grid.Position, error) {
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		return grid.Position{}, fmt.Errorf("invalid row %q", rowArg)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil {
		return grid.Position{}, fmt.Errorf("invalid column %q", colArg)
	}
	return grid.Position{Row: row, Col: col}, nil
}
