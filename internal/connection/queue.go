package connection

import "sync"

// frameQueue is an unbounded FIFO of frames between the reader and the
// delivery goroutine. The reader never blocks on a slow handler, so control
// frames (pongs, close) keep being processed while frames back up.
type frameQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ring   []Frame
	head   int // next pop
	count  int
	closed bool

	stats QueueStats
}

// QueueStats describes the reader -> handler queue.
type QueueStats struct {
	Depth  int   `json:"depth"` // Frames waiting for the handler
	Pushed int64 `json:"pushed"`
	Popped int64 `json:"popped"`
	Peak   int   `json:"peak"` // Largest backlog seen
	Grows  int   `json:"grows"`
}

func newFrameQueue(capacity int) *frameQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &frameQueue{ring: make([]Frame, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a frame, doubling the ring when full.
// Returns false once the queue is closed.
func (q *frameQueue) push(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.count == len(q.ring) {
		q.grow()
	}

	q.ring[(q.head+q.count)%len(q.ring)] = f
	q.count++
	q.stats.Pushed++
	q.stats.Peak = max(q.stats.Peak, q.count)

	q.cond.Signal()
	return true
}

// pop blocks until a frame is available. After close it drains what is
// left, then returns false.
func (q *frameQueue) pop() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.count == 0 {
		return Frame{}, false
	}

	f := q.ring[q.head]
	q.ring[q.head] = Frame{} // Release payload
	q.head = (q.head + 1) % len(q.ring)
	q.count--
	q.stats.Popped++
	return f, true
}

func (q *frameQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

func (q *frameQueue) snapshot() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.Depth = q.count
	return s
}

// grow doubles the ring, unwrapping it. Must be called with the lock held.
func (q *frameQueue) grow() {
	ring := make([]Frame, len(q.ring)*2)
	n := copy(ring, q.ring[q.head:])
	copy(ring[n:], q.ring[:q.head])

	q.ring = ring
	q.head = 0
	q.stats.Grows++
}
