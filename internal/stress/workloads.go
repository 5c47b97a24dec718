package stress

import (
	"strconv"

	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
	"github.com/ajitpratap0/leasepool/pkg/set"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

// TextWorkload fails when a leased buffer still holds content, then writes a
// short line identifying the worker and cycle.
func TextWorkload(buf *textbuf.Buffer, worker, cycle int) error {
	if buf.Len() != 0 {
		return poolerrors.New(poolerrors.ErrorTypeInternal, "leased text buffer was not cleared").
			WithDetail("length", buf.Len())
	}
	buf.WriteString("worker=")
	buf.WriteString(strconv.Itoa(worker))
	buf.WriteString(" cycle=")
	buf.WriteString(strconv.Itoa(cycle))
	return buf.WriteByte('\n')
}

// StringSetWorkload fails when a leased set still holds elements, then adds
// a few worker-specific keys.
func StringSetWorkload(s *set.Set[string], worker, cycle int) error {
	if s.Len() != 0 {
		return poolerrors.New(poolerrors.ErrorTypeInternal, "leased set was not cleared").
			WithDetail("length", s.Len())
	}
	w := strconv.Itoa(worker)
	s.AddAll("worker-"+w, "cycle-"+strconv.Itoa(cycle), "Worker-"+w)
	if s.Len() != 3 {
		return poolerrors.Newf(poolerrors.ErrorTypeInternal, "expected 3 ordinal keys, got %d", s.Len())
	}
	return nil
}
