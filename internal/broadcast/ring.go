package broadcast

import "github.com/bharatgolchha/liveconvo/internal/domain"

// ring is a fixed-capacity FIFO of segments with contiguous sequence numbers.
type ring struct {
	buf   []domain.Segment
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]domain.Segment, capacity)}
}

// push appends seg, evicting the oldest segment when full. Reports whether it evicted.
func (r *ring) push(seg domain.Segment) bool {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = seg
		r.size++
		return false
	}
	r.buf[r.start] = seg
	r.start = (r.start + 1) % len(r.buf)
	return true
}

func (r *ring) len() int { return r.size }

// oldest returns the sequence number of the oldest buffered segment.
func (r *ring) oldest() (uint64, bool) {
	if r.size == 0 {
		return 0, false
	}
	return r.buf[r.start].Sequence, true
}

// since returns up to limit buffered segments with Sequence >= from, in order.
// limit <= 0 means no limit.
func (r *ring) since(from uint64, limit int) []domain.Segment {
	oldest, ok := r.oldest()
	if !ok {
		return nil
	}
	if from < oldest {
		from = oldest
	}
	offset := int(from - oldest)
	if offset >= r.size {
		return nil
	}

	n := r.size - offset
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.Segment, n)
	for i := range n {
		out[i] = r.buf[(r.start+offset+i)%len(r.buf)]
	}
	return out
}
