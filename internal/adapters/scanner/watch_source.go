package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/example/controlcard/internal/ports/secondary"
)

// WatchSource yields payloads dropped as files into a directory, one payload
// per file. A phone app or a networked scanner writes the decoded QR text to
// a file; the file is consumed and removed.
type WatchSource struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	settle   time.Duration
	pending  map[string]time.Time
	payloads chan string

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatchSource starts watching dir, creating it if needed. Files already
// present are delivered first in name order.
func NewWatchSource(dir string, logger *zap.Logger) (*WatchSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	ws := &WatchSource{
		dir:      dir,
		watcher:  watcher,
		logger:   logger,
		settle:   100 * time.Millisecond,
		pending:  make(map[string]time.Time),
		payloads: make(chan string, 16),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	existing, err := os.ReadDir(dir)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	now := time.Now()
	for _, entry := range existing {
		if ws.accept(entry.Name()) && !entry.IsDir() {
			ws.pending[filepath.Join(dir, entry.Name())] = now.Add(-ws.settle)
		}
	}

	go ws.run()

	logger.Info("watching scan drop directory", zap.String("dir", dir))
	return ws, nil
}

// Next returns the next dropped payload. It returns io.EOF after Close.
func (ws *WatchSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case p, ok := <-ws.payloads:
		if !ok {
			return "", io.EOF
		}
		return p, nil
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (ws *WatchSource) Close() error {
	var err error
	ws.stopOnce.Do(func() {
		close(ws.stopCh)
		<-ws.doneCh
		err = ws.watcher.Close()
	})
	return err
}

func (ws *WatchSource) accept(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, ".tmp")
}

func (ws *WatchSource) run() {
	defer close(ws.doneCh)
	defer close(ws.payloads)

	ticker := time.NewTicker(ws.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ws.stopCh:
			return

		case event, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && ws.accept(event.Name) {
				// Writers may flush in chunks; wait for the file to settle.
				ws.pending[event.Name] = time.Now()
			}

		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			ws.logger.Warn("scan watcher error", zap.Error(err))

		case <-ticker.C:
			if !ws.flush() {
				return
			}
		}
	}
}

// flush delivers every pending file that has settled. It reports false when
// the source was stopped while delivering.
func (ws *WatchSource) flush() bool {
	cutoff := time.Now().Add(-ws.settle)

	var ready []string
	for path, seen := range ws.pending {
		if !seen.After(cutoff) {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		delete(ws.pending, path)

		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				ws.logger.Warn("failed to read scan file", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if err := os.Remove(path); err != nil {
			ws.logger.Warn("failed to remove scan file", zap.String("path", path), zap.Error(err))
		}

		payload := strings.TrimSpace(string(data))
		if payload == "" {
			continue
		}

		select {
		case ws.payloads <- payload:
		case <-ws.stopCh:
			return false
		}
	}
	return true
}

// Ensure WatchSource implements the interface
var _ secondary.ScanSource = (*WatchSource)(nil)
