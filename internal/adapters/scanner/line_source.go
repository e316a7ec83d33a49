// Package scanner contains the scan sources that feed decoded QR payloads
// into an editing session.
package scanner

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/example/controlcard/internal/ports/secondary"
)

// LineSource yields one decoded payload per non-blank line of r. It suits
// keyboard-wedge scanners and piped input.
type LineSource struct {
	scanner *bufio.Scanner
}

// NewLineSource creates a LineSource reading from r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{scanner: bufio.NewScanner(r)}
}

// Next returns the next payload, or io.EOF once r is exhausted. The read
// itself blocks; ctx is only checked between lines.
func (s *LineSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line != "" {
			return line, nil
		}
	}
}

// Ensure LineSource implements the interface
var _ secondary.ScanSource = (*LineSource)(nil)
