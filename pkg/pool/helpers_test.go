package pool

import (
	"errors"
	"testing"

	"github.com/ajitpratap0/leasepool/pkg/testutil"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

type textbufBuffer = textbuf.Buffer

var errBoom = errors.New("boom")

// failingPolicy always fails to create.
type failingPolicy struct {
	TextBufferPolicy
}

func (failingPolicy) Create() (*textbuf.Buffer, error) {
	return nil, errBoom
}

// nilPolicy violates the contract by returning a nil item without an error.
type nilPolicy struct {
	TextBufferPolicy
}

func (nilPolicy) Create() (*textbuf.Buffer, error) {
	return nil, nil
}

// leakyPolicy never clears contents on reset.
type leakyPolicy struct {
	TextBufferPolicy
}

func (leakyPolicy) Reset(*textbuf.Buffer) {}

func testOptions(t *testing.T, name string, extra ...Option) []Option {
	t.Helper()
	return append([]Option{
		WithName(name),
		WithLogger(testutil.TestLogger(t)),
	}, extra...)
}

func newTestPool(t *testing.T, extra ...Option) *Pool[textbuf.Buffer] {
	t.Helper()
	p, err := NewPool[textbuf.Buffer](TextBufferPolicy{InitialCapacity: 64}, testOptions(t, t.Name(), extra...)...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

var scenarioTiers = []int{256, 1024, 4096, 16384}

func newTestFactory(t *testing.T, extra ...Option) *Factory[textbuf.Buffer] {
	t.Helper()
	f, err := NewTieredFactory[textbuf.Buffer](TextBufferPolicy{}, scenarioTiers, testOptions(t, t.Name(), extra...)...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}
