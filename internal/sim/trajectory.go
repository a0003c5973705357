package sim

// Trajectory is a fixed-capacity ring of recent positions. Pushing into a full
// ring evicts the oldest entry. A zero-capacity trajectory ignores pushes.
type Trajectory[T any] struct {
	buf  []T
	head int
	size int
}

// NewTrajectory returns a ring of capacity n with every slot set to fill.
func NewTrajectory[T any](n int, fill T) *Trajectory[T] {
	if n < 0 {
		n = 0
	}
	t := &Trajectory[T]{buf: make([]T, n)}
	t.Fill(fill)
	return t
}

func (t *Trajectory[T]) Push(v T) {
	if len(t.buf) == 0 {
		return
	}
	t.buf[t.head] = v
	t.head = (t.head + 1) % len(t.buf)
	if t.size < len(t.buf) {
		t.size++
	}
}

// Fill overwrites every slot with v, so the trail collapses to one point.
func (t *Trajectory[T]) Fill(v T) {
	for i := range t.buf {
		t.buf[i] = v
	}
	t.head = 0
	t.size = len(t.buf)
}

// Slice returns a copy of the contents, oldest first.
func (t *Trajectory[T]) Slice() []T {
	out := make([]T, t.size)
	start := t.head - t.size
	if start < 0 {
		start += len(t.buf)
	}
	for i := 0; i < t.size; i++ {
		out[i] = t.buf[(start+i)%len(t.buf)]
	}
	return out
}

func (t *Trajectory[T]) Len() int { return t.size }
func (t *Trajectory[T]) Cap() int { return len(t.buf) }

func (t *Trajectory[T]) Latest() (T, bool) {
	var zero T
	if t.size == 0 {
		return zero, false
	}
	i := t.head - 1
	if i < 0 {
		i += len(t.buf)
	}
	return t.buf[i], true
}
