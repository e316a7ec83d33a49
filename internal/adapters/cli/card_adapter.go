// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/primary"
	"github.com/example/controlcard/internal/ports/secondary"
)

// CardAdapter is a thin adapter that translates CLI operations to CardService calls.
type CardAdapter struct {
	service primary.CardService
	out     io.Writer
	in      io.Reader
}

// NewCardAdapter creates a new CardAdapter. in is read for confirmations.
func NewCardAdapter(service primary.CardService, out io.Writer, in io.Reader) *CardAdapter {
	return &CardAdapter{
		service: service,
		out:     out,
		in:      in,
	}
}

// Redeem exchanges an entry code for a new card.
func (a *CardAdapter) Redeem(ctx context.Context, code string) error {
	card, err := a.service.RedeemCode(ctx, code)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Redeemed card %d: %s (competitor %d, %d rows)\n",
		card.ID, card.Name, card.CompetitorNumber, card.RowCount)
	return nil
}

// List lists cards ordered by competitor number.
func (a *CardAdapter) List(ctx context.Context) error {
	cards, err := a.service.ListCards(ctx)
	if err != nil {
		return err
	}

	if len(cards) == 0 {
		fmt.Fprintln(a.out, "No cards found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-6s %-12s %-20s %s\n", "ID", "EQ", "STATUS", "CODE", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, c := range cards {
		fmt.Fprintf(a.out, "%-6d %-6d %-12s %-20s %s\n", c.ID, c.CompetitorNumber, statusLabel(c.Finalized), c.Code, c.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}

func statusLabel(finalized bool) string {
	// Pad before coloring so the escape codes do not break column alignment.
	if finalized {
		return color.New(color.FgGreen).Sprintf("%-12s", "finalized")
	}
	return color.New(color.FgYellow).Sprintf("%-12s", "editable")
}

// Show displays a card and its grid. Scan-locked cells are highlighted.
func (a *CardAdapter) Show(ctx context.Context, ref string) error {
	card, err := a.service.FindCard(ctx, ref)
	if err != nil {
		return err
	}

	session, err := a.service.OpenSession(ctx, card.ID)
	if err != nil {
		return err
	}
	snap, err := session.Snapshot(ctx)
	closeErr := session.Close(ctx)
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	fmt.Fprintf(a.out, "\nCard:       %d\n", card.ID)
	fmt.Fprintf(a.out, "Name:       %s\n", card.Name)
	fmt.Fprintf(a.out, "Code:       %s\n", card.Code)
	fmt.Fprintf(a.out, "Competitor: %d (id %d)\n", card.CompetitorNumber, card.CompetitorID)
	if card.CardID != 0 {
		fmt.Fprintf(a.out, "Card no:    %d (id %d)\n", card.CardNumber, card.CardID)
	}
	fmt.Fprintf(a.out, "Status:     %s\n\n", strings.TrimSpace(statusLabel(card.Finalized)))

	a.printGrid(snap.Grid)
	fmt.Fprintln(a.out)
	return nil
}

func (a *CardAdapter) printGrid(g *grid.Grid) {
	locked := color.New(color.FgCyan, color.Bold)
	fmt.Fprintf(a.out, "%4s  %s\n", "ROW", " 1  2  3  4")
	for _, row := range g.Rows() {
		fmt.Fprintf(a.out, "%4d ", row.Number)
		for _, c := range row.Cells {
			v := c.Value
			if v == "" {
				v = "·"
			}
			if c.Locked {
				v = locked.Sprint(v)
			}
			fmt.Fprintf(a.out, "  %s", v)
		}
		fmt.Fprintln(a.out)
	}
}

// Set writes one cell manually.
func (a *CardAdapter) Set(ctx context.Context, ref string, pos grid.Position, value string) error {
	return a.withSession(ctx, ref, func(session primary.EditingSession) error {
		update, err := session.SetCellValue(ctx, pos, value)
		if err != nil {
			return err
		}
		if update.Value == "" {
			fmt.Fprintf(a.out, "✓ Cleared cell %s\n", update.Position)
		} else {
			fmt.Fprintf(a.out, "✓ Set cell %s to %s\n", update.Position, update.Value)
		}
		return nil
	})
}

// Scan assigns payloads to a card in order. A failing payload is reported
// and the rest still run. A non-nil source is read until io.EOF instead of
// payloads.
func (a *CardAdapter) Scan(ctx context.Context, ref string, payloads []string, source secondary.ScanSource) error {
	return a.withSession(ctx, ref, func(session primary.EditingSession) error {
		next := func() (string, error) {
			if len(payloads) == 0 {
				return "", io.EOF
			}
			p := payloads[0]
			payloads = payloads[1:]
			return p, nil
		}
		if source != nil {
			next = func() (string, error) { return source.Next(ctx) }
		}

		var failed int
		for {
			payload, err := next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}

			result, err := session.AssignScan(ctx, payload)
			if err != nil {
				failed++
				fmt.Fprintf(a.out, "%s %s: %s [%s]\n", color.New(color.FgRed).Sprint("✗"),
					payload, failure.MessageOf(err), failure.KindOf(err))
				continue
			}
			fmt.Fprintf(a.out, "✓ %s → cell %s (locked)\n", payload, result.Position)
		}

		if failed > 0 {
			return fmt.Errorf("%d scan(s) rejected", failed)
		}
		return nil
	})
}

// Finalize submits a card. Without yes the confirmation is read from in.
func (a *CardAdapter) Finalize(ctx context.Context, ref string, yes bool) error {
	return a.withSession(ctx, ref, func(session primary.EditingSession) error {
		confirm, err := session.RequestFinalize(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.out, "%s: %s\n", color.New(color.FgYellow, color.Bold).Sprint(confirm.Title), confirm.Message)
		if !yes {
			fmt.Fprint(a.out, "Proceed? [y/N]: ")
			line, _ := bufio.NewReader(a.in).ReadString('\n')
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				fmt.Fprintln(a.out, "Cancelled")
				return session.CancelFinalize(ctx)
			}
		}

		if err := session.ConfirmFinalize(ctx); err != nil {
			return err
		}

		for {
			select {
			case alert := <-session.Alerts():
				switch outcome := alert.(type) {
				case primary.SaveAlert:
					a.warnSave(outcome)
				case primary.SubmissionAlert:
					if !outcome.Success {
						fmt.Fprintf(a.out, "%s %s\n", color.New(color.FgRed).Sprint("✗"), outcome.Message)
						return failure.New(outcome.Kind, "%s", outcome.Message)
					}
					fmt.Fprintf(a.out, "✓ %s\n", outcome.Message)
					return nil
				default:
					return fmt.Errorf("unexpected alert %T", alert)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

func (a *CardAdapter) warnSave(alert primary.SaveAlert) {
	fmt.Fprintf(a.out, "%s %s [%s]\n", color.New(color.FgYellow).Sprint("⚠"), alert.Message, alert.Kind)
}

// Delete removes a card.
func (a *CardAdapter) Delete(ctx context.Context, ref string) error {
	card, err := a.service.FindCard(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.service.DeleteCard(ctx, card.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted card %d: %s\n", card.ID, card.Name)
	return nil
}

// withSession opens a session for ref, runs fn and always takes the exit
// checkpoint.
func (a *CardAdapter) withSession(ctx context.Context, ref string, fn func(primary.EditingSession) error) error {
	card, err := a.service.FindCard(ctx, ref)
	if err != nil {
		return err
	}
	session, err := a.service.OpenSession(ctx, card.ID)
	if err != nil {
		return err
	}

	runErr := fn(session)
	closeErr := session.Close(context.WithoutCancel(ctx))
	saveErr := a.drainSaveAlerts(session)
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}
	return saveErr
}

// drainSaveAlerts prints background save failures still buffered after
// Close and returns the last one as an error.
func (a *CardAdapter) drainSaveAlerts(session primary.EditingSession) error {
	var err error
	for {
		select {
		case alert, ok := <-session.Alerts():
			if !ok {
				return err
			}
			if sa, isSave := alert.(primary.SaveAlert); isSave {
				a.warnSave(sa)
				err = failure.New(sa.Kind, "%s", sa.Message)
			}
		default:
			return err
		}
	}
}
