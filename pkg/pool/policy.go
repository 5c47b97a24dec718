package pool

import (
	"github.com/ajitpratap0/leasepool/pkg/set"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

// Kind tags the closed set of item kinds a policy can manage.
type Kind uint8

const (
	// KindTextBuffer is a growable text buffer (*textbuf.Buffer)
	KindTextBuffer Kind = iota + 1
	// KindSet is a mutable set (*set.Set[E])
	KindSet
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindTextBuffer:
		return "text_buffer"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Policy is the per-kind contract for constructing and resetting items.
//
// Create returns a fresh, empty item and never returns a nil item without an
// error. Reset restores an item to its empty state without releasing its
// backing storage. Implementations hold no mutable state of their own and
// are safe to call from any goroutine.
type Policy[T any] interface {
	Create() (*T, error)
	Reset(item *T)
	Kind() Kind
}

// SizedPolicy is a Policy whose items have a capacity that can be grown in
// place. Bucketed factories require it.
type SizedPolicy[T any] interface {
	Policy[T]
	Capacity(item *T) int
	Grow(item *T, capacity int)
}

// TextBufferPolicy manages *textbuf.Buffer items. Reset truncates to zero
// length and keeps the backing array.
type TextBufferPolicy struct {
	// InitialCapacity is the capacity of newly created buffers
	InitialCapacity int
}

var _ SizedPolicy[textbuf.Buffer] = TextBufferPolicy{}

// Create returns a new empty buffer.
func (p TextBufferPolicy) Create() (*textbuf.Buffer, error) {
	return textbuf.New(p.InitialCapacity), nil
}

// Reset truncates the buffer.
func (TextBufferPolicy) Reset(b *textbuf.Buffer) {
	b.Reset()
}

// Kind returns KindTextBuffer.
func (TextBufferPolicy) Kind() Kind {
	return KindTextBuffer
}

// Capacity returns the buffer's capacity in bytes.
func (TextBufferPolicy) Capacity(b *textbuf.Buffer) int {
	return b.Cap()
}

// Grow grows the buffer to at least capacity bytes.
func (TextBufferPolicy) Grow(b *textbuf.Buffer, capacity int) {
	b.EnsureCapacity(capacity)
}

// SetPolicy manages *set.Set[E] items. Reset clears the elements and keeps
// the set's storage. Element equality is Go equality on E, which for strings
// is ordinal.
type SetPolicy[E comparable] struct {
	// InitialCapacity is the element capacity of newly created sets
	InitialCapacity int
}

// Create returns a new empty set.
func (p SetPolicy[E]) Create() (*set.Set[E], error) {
	return set.New[E](p.InitialCapacity), nil
}

// Reset clears the set.
func (SetPolicy[E]) Reset(s *set.Set[E]) {
	s.Clear()
}

// Kind returns KindSet.
func (SetPolicy[E]) Kind() Kind {
	return KindSet
}

// Capacity returns the number of elements the set is sized for.
func (SetPolicy[E]) Capacity(s *set.Set[E]) int {
	return s.Cap()
}

// Grow resizes the set to hold at least capacity elements.
func (SetPolicy[E]) Grow(s *set.Set[E], capacity int) {
	s.Grow(capacity)
}

// tierPolicy pre-grows created items to the tier threshold so that every
// item in a tier pool satisfies any request routed to that tier.
type tierPolicy[T any] struct {
	SizedPolicy[T]
	threshold int
}

func (p tierPolicy[T]) Create() (*T, error) {
	item, err := p.SizedPolicy.Create()
	if err != nil || item == nil {
		return item, err
	}
	if p.SizedPolicy.Capacity(item) < p.threshold {
		p.SizedPolicy.Grow(item, p.threshold)
	}
	return item, nil
}
