package cli

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/wire"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		row, col string
		want     grid.Position
		wantErr  bool
	}{
		{"1", "1", grid.Position{Row: 1, Col: 1}, false},
		{"30", "4", grid.Position{Row: 30, Col: 4}, false},
		{"x", "1", grid.Position{}, true},
		{"1", "", grid.Position{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.row+":"+tt.col, func(t *testing.T) {
			got, err := parsePosition(tt.row, tt.col)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePosition error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePosition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		cmd     *cobra.Command
		args    []string
		wantErr bool
	}{
		{RedeemCmd(), []string{"ABC"}, false},
		{RedeemCmd(), nil, true},
		{ListCmd(), []string{"extra"}, true},
		{SetCmd(), []string{"1", "2", "3"}, true},
		{SetCmd(), []string{"1", "2", "3", "A"}, false},
		{ScanCmd(), []string{"1"}, true},
		{ScanCmd(), []string{"1", "-"}, false},
		{FinalizeCmd(), []string{"1"}, false},
		{EditCmd(), []string{}, true},
	}

	for _, tt := range tests {
		err := tt.cmd.Args(tt.cmd, tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s %v: error = %v, wantErr %v", tt.cmd.Name(), tt.args, err, tt.wantErr)
		}
	}
}

func TestFinalizeCmd_YesFlag(t *testing.T) {
	cmd := FinalizeCmd()
	if err := cmd.ParseFlags([]string{"-y"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		t.Error("expected --yes to be set by -y")
	}
}

func TestBootstrap_EditorLogsToFile(t *testing.T) {
	home := t.TempDir()
	homeFlag = home
	t.Cleanup(func() { homeFlag = "" })

	if err := Bootstrap(EditCmd(), nil); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if got := wire.Config().Logging.Output; got != filepath.Join(home, "controlcard.log") {
		t.Errorf("editor log output = %q", got)
	}

	if err := Bootstrap(ListCmd(), nil); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if got := wire.Config().Logging.Output; got != "stderr" {
		t.Errorf("list log output = %q, want stderr", got)
	}
	if got := wire.Config().Database; got != filepath.Join(home, "controlcard.db") {
		t.Errorf("Database = %q", got)
	}
}
