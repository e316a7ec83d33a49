package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/controlcard/internal/adapters/scanner"
	"github.com/example/controlcard/internal/ports/primary"
	"github.com/example/controlcard/internal/tui"
	"github.com/example/controlcard/internal/wire"
)

// EditCmd returns the edit command.
func EditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [card]",
		Short: "Open the interactive grid editor",
		Long: `Open the interactive grid editor for a card.

Payloads written as files into the scan watch directory are applied while
the editor is open. Use --no-watch to disable it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noWatch, _ := cmd.Flags().GetBool("no-watch")
			return runEditor(cmd.Context(), args[0], !noWatch)
		},
	}
	cmd.Flags().Bool("no-watch", false, "Do not watch the scan directory")
	return cmd
}

func runEditor(ctx context.Context, ref string, watch bool) error {
	logger := wire.Logger()
	service := wire.CardService()

	card, err := service.FindCard(ctx, ref)
	if err != nil {
		return err
	}
	session, err := service.OpenSession(ctx, card.ID)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("exit checkpoint failed", zap.Error(err))
		}
	}()

	if err := session.Checkpoint(ctx, primary.CheckpointOpen); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.New(ctx, session),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if watch {
		source, err := scanner.NewWatchSource(wire.Config().Scan.WatchDir, logger)
		if err != nil {
			program.Kill()
			_ = g.Wait()
			return fmt.Errorf("failed to watch scan directory: %w", err)
		}
		logger.Info("watching scan directory", zap.String("dir", wire.Config().Scan.WatchDir))

		g.Go(func() error {
			<-gctx.Done()
			return source.Close()
		})
		g.Go(func() error {
			for {
				payload, err := source.Next(gctx)
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				program.Send(tui.ScanMsg{Payload: payload})
			}
		})
	}

	return g.Wait()
}
