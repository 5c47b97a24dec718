package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestObservedLogger(t *testing.T) {
	log, logs := ObservedLogger(zap.WarnLevel)
	log.Info("dropped")
	log.Warn("kept", zap.String("pool", "p"))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "p", entries[0].ContextMap()["pool"])
}

func TestRunConcurrently(t *testing.T) {
	var calls atomic.Int32
	seen := make([]atomic.Bool, 8)

	RunConcurrently(8, func(w int) {
		calls.Add(1)
		seen[w].Store(true)
	})

	assert.Equal(t, int32(8), calls.Load())
	for i := range seen {
		assert.True(t, seen[i].Load(), "worker %d", i)
	}
}

func TestAssertEventually(t *testing.T) {
	var ready atomic.Bool
	time.AfterFunc(20*time.Millisecond, func() { ready.Store(true) })
	AssertEventually(t, ready.Load, time.Second, "flag set")
}

func TestTestContext(t *testing.T) {
	ctx := TestContext(t)
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), deadline, 5*time.Second)
	assert.NotNil(t, TestLogger(t))
}
