package questions

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() { c.calls.Add(1) }

func TestWatchInvalidatesOnWrite(t *testing.T) {
	path := writeDataset(t, "quiz.json", jsonDataset)
	target := &countingInvalidator{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, target, zap.NewNop()) }()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(yamlDataset), 0o644))

	require.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
