package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
	"github.com/ajitpratap0/leasepool/pkg/testutil"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

func TestNewPoolValidation(t *testing.T) {
	_, err := NewPool[textbuf.Buffer](nil)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeInvalidArgument))

	_, err = NewPool[textbuf.Buffer](TextBufferPolicy{}, WithMaxIdle(-1))
	assert.ErrorIs(t, err, poolerrors.ErrInvalidArgument)
}

func TestPoolGetCreatesWhenEmpty(t *testing.T) {
	p := newTestPool(t)

	b, err := p.Get()
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, 64, b.Cap())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Created)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.InUse)
}

func TestPoolReturnResetsAndReuses(t *testing.T) {
	p := newTestPool(t)

	b, err := p.Get()
	require.NoError(t, err)
	b.WriteString("leftover")

	kept, err := p.Return(b)
	require.NoError(t, err)
	assert.True(t, kept)
	assert.Equal(t, 1, p.Len())

	again, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, b, again, "free-list hands back the returned item")
	assert.Equal(t, 0, again.Len())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Created)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Returned)
	assert.Equal(t, 0, stats.Idle)
}

func TestPoolIsLIFO(t *testing.T) {
	p := newTestPool(t)

	first, _ := p.Get()
	second, _ := p.Get()
	_, _ = p.Return(first)
	_, _ = p.Return(second)

	got, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestPoolReturnNil(t *testing.T) {
	p := newTestPool(t)

	kept, err := p.Return(nil)
	assert.False(t, kept)
	assert.ErrorIs(t, err, poolerrors.ErrInvalidArgument)
	assert.Equal(t, 0, p.Len())
}

func TestPoolDoubleReturnIsRejected(t *testing.T) {
	p := newTestPool(t)

	b, err := p.Get()
	require.NoError(t, err)

	kept, err := p.Return(b)
	require.NoError(t, err)
	require.True(t, kept)

	kept, err = p.Return(b)
	assert.False(t, kept)
	assert.ErrorIs(t, err, poolerrors.ErrMisuse)
	assert.Equal(t, 1, p.Len(), "free-list must not hold the item twice")
	assert.Equal(t, int64(1), p.Stats().Misuse)

	// The two next acquisitions must be distinct items.
	x, _ := p.Get()
	y, _ := p.Get()
	assert.NotSame(t, x, y)
}

func TestPoolAcceptsForeignItems(t *testing.T) {
	p := newTestPool(t)

	foreign := textbuf.New(8)
	foreign.WriteString("not from here")

	kept, err := p.Return(foreign)
	require.NoError(t, err)
	assert.True(t, kept)
	assert.Equal(t, int64(0), p.Stats().InUse)
	assert.Equal(t, int64(1), p.Stats().Returned)

	got, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, foreign, got)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, int64(1), p.Stats().InUse)
}

func TestPoolInUseNeverNegative(t *testing.T) {
	p := newTestPool(t, WithMaxIdle(1))

	for i := 0; i < 3; i++ {
		_, err := p.Return(textbuf.New(8))
		require.NoError(t, err)
	}

	stats := p.Stats()
	assert.Equal(t, int64(0), stats.InUse)
	assert.Equal(t, int64(1), stats.Returned)
	assert.Equal(t, int64(2), stats.Discarded)
}

func TestPoolIdleCapDiscards(t *testing.T) {
	p := newTestPool(t, WithMaxIdle(2))

	items := make([]*textbuf.Buffer, 3)
	for i := range items {
		b, err := p.Get()
		require.NoError(t, err)
		items[i] = b
	}

	for _, b := range items[:2] {
		kept, err := p.Return(b)
		require.NoError(t, err)
		assert.True(t, kept)
	}

	kept, err := p.Return(items[2])
	require.NoError(t, err)
	assert.False(t, kept)

	stats := p.Stats()
	assert.Equal(t, 2, stats.Idle)
	assert.Equal(t, int64(1), stats.Discarded)
	assert.Equal(t, int64(0), stats.InUse)
}

func TestPoolPrewarm(t *testing.T) {
	t.Run("unbounded", func(t *testing.T) {
		p := newTestPool(t)
		added, err := p.Prewarm(5)
		require.NoError(t, err)
		assert.Equal(t, 5, added)
		assert.Equal(t, 5, p.Len())

		added, err = p.Prewarm(3)
		require.NoError(t, err)
		assert.Equal(t, 0, added, "already holds enough idle items")
	})

	t.Run("capped", func(t *testing.T) {
		p := newTestPool(t, WithMaxIdle(2))
		added, err := p.Prewarm(10)
		require.NoError(t, err)
		assert.Equal(t, 2, added)
		assert.Equal(t, 2, p.Len())
	})

	t.Run("negative", func(t *testing.T) {
		p := newTestPool(t)
		_, err := p.Prewarm(-1)
		assert.ErrorIs(t, err, poolerrors.ErrInvalidArgument)
	})
}

func TestPoolCreateFailure(t *testing.T) {
	p, err := NewPool[textbuf.Buffer](failingPolicy{}, testOptions(t, t.Name())...)
	require.NoError(t, err)

	b, err := p.Get()
	assert.Nil(t, b)
	assert.ErrorIs(t, err, poolerrors.ErrCreate)
	assert.ErrorIs(t, err, errBoom)

	stats := p.Stats()
	assert.Equal(t, int64(0), stats.Created)
	assert.Equal(t, int64(0), stats.InUse)

	_, err = p.Prewarm(1)
	assert.ErrorIs(t, err, poolerrors.ErrCreate)
}

func TestPoolNilCreateIsAnError(t *testing.T) {
	p, err := NewPool[textbuf.Buffer](nilPolicy{}, testOptions(t, t.Name())...)
	require.NoError(t, err)

	b, err := p.Get()
	assert.Nil(t, b)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeCreate))
}

func TestPoolLease(t *testing.T) {
	p := newTestPool(t)

	lease, err := p.Lease()
	require.NoError(t, err)
	assert.Equal(t, 0, lease.Tier())

	lease.MustItem().WriteString("x")
	require.NoError(t, lease.Release())
	assert.Equal(t, 1, p.Len())
}

func TestPoolAccessors(t *testing.T) {
	p := newTestPool(t)
	assert.Equal(t, t.Name(), p.Name())
	assert.Equal(t, 0, p.Tier())

	unnamed, err := NewPool[textbuf.Buffer](TextBufferPolicy{}, WithName(""))
	require.NoError(t, err)
	assert.Equal(t, "default", unnamed.Name())
}

func TestPoolConcurrentNoDoubleCheckout(t *testing.T) {
	const (
		workers = 16
		cycles  = 500
	)
	p := newTestPool(t)

	var (
		mu      sync.Mutex
		holders = make(map[*textbuf.Buffer]int)
		dupes   int
	)

	testutil.RunConcurrently(workers, func(id int) {
		for i := 0; i < cycles; i++ {
			b, err := p.Get()
			if err != nil {
				t.Error(err)
				return
			}

			mu.Lock()
			if _, held := holders[b]; held {
				dupes++
			}
			holders[b] = id
			mu.Unlock()

			b.WriteString("payload")

			mu.Lock()
			delete(holders, b)
			mu.Unlock()

			if _, err := p.Return(b); err != nil {
				t.Error(err)
				return
			}
		}
	})

	assert.Zero(t, dupes)
	stats := p.Stats()
	assert.LessOrEqual(t, stats.Created, int64(workers))
	assert.Equal(t, int64(0), stats.InUse)
	assert.Equal(t, int(stats.Created), stats.Idle)
	assert.Equal(t, int64(workers*cycles), stats.Hits+stats.Misses)
}

func TestPoolLogsMisuse(t *testing.T) {
	log, logs := testutil.ObservedLogger(zap.WarnLevel)
	p, err := NewPool[textbuf.Buffer](TextBufferPolicy{}, WithName("observed"), WithLogger(log))
	require.NoError(t, err)

	b, err := p.Get()
	require.NoError(t, err)
	_, _ = p.Return(b)
	_, _ = p.Return(b)

	entries := logs.FilterMessage("item returned while already idle").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "observed", entries[0].ContextMap()["pool"])
	assert.Equal(t, "text_buffer", entries[0].ContextMap()["kind"])
	assert.Equal(t, "none", entries[0].ContextMap()["tier"])
}
