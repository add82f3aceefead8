package harvest

// reorderBuffer restores submission order from out-of-order concurrent
// completions. Completions carry the sequence number they were dispatched
// with; Add returns the contiguous ordered prefix that became ready. The
// buffer never holds more entries than there are in-flight fetches, so its
// size is bounded by the worker pool.
type reorderBuffer struct {
	next    int
	pending map[int]Outcome
}

func newReorderBuffer(capacity int) *reorderBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &reorderBuffer{
		pending: make(map[int]Outcome, capacity),
	}
}

// Add stores the outcome completed at sequence seq and drains every pending
// outcome whose turn has come.
func (b *reorderBuffer) Add(seq int, o Outcome) []Outcome {
	b.pending[seq] = o
	var ready []Outcome
	for {
		out, ok := b.pending[b.next]
		if !ok {
			break
		}
		delete(b.pending, b.next)
		b.next++
		ready = append(ready, out)
	}
	return ready
}

// Len reports how many completions are parked waiting for an earlier one.
func (b *reorderBuffer) Len() int {
	return len(b.pending)
}
