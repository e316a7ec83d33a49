package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLineSource_SkipsBlankLines(t *testing.T) {
	src := NewLineSource(strings.NewReader("3:A\n\n   \n 12 : b \n"))
	ctx := context.Background()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3:A", first)

	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12 : b", second)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineSource_CancelledContext(t *testing.T) {
	src := NewLineSource(strings.NewReader("1:A\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func nextWithin(t *testing.T, src *WatchSource, d time.Duration) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	payload, err := src.Next(ctx)
	require.NoError(t, err)
	return payload
}

func TestWatchSource_DeliversDroppedFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-existing"), []byte("1:X\n"), 0644))

	src, err := NewWatchSource(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "1:X", nextWithin(t, src, 2*time.Second))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan-2"), []byte("  4:Q  "), 0644))
	assert.Equal(t, "4:Q", nextWithin(t, src, 2*time.Second))

	// Consumed files are removed
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "scan-2"))
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, src.Close())

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestWatchSource_IgnoresHiddenAndTempFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	src, err := NewWatchSource(dir, nil)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("1:A"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.tmp"), []byte("1:B"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real"), []byte("1:C"), 0644))

	assert.Equal(t, "1:C", nextWithin(t, src, 2*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatchSource_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src, err := NewWatchSource(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}
