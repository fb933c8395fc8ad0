package messages

import "github.com/nvandessel/pixelplant/internal/constants"

// Queue is a fixed-capacity FIFO of outgoing message text. Pushing onto a
// full queue drops the new message and never blocks.
type Queue struct {
	buf   []string
	head  int
	count int
}

// NewQueue returns a queue holding at most capacity messages. A
// non-positive capacity uses constants.DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = constants.DefaultQueueCapacity
	}
	return &Queue{buf: make([]string, capacity)}
}

// Push appends text. It reports false when the queue is full or text is
// empty.
func (q *Queue) Push(text string) bool {
	if text == "" || q.count == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.count)%len(q.buf)] = text
	q.count++
	return true
}

// Pop removes and returns the oldest message.
func (q *Queue) Pop() (string, bool) {
	if q.count == 0 {
		return "", false
	}
	text := q.buf[q.head]
	q.buf[q.head] = ""
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return text, true
}

// Peek returns the oldest message without removing it.
func (q *Queue) Peek() (string, bool) {
	if q.count == 0 {
		return "", false
	}
	return q.buf[q.head], true
}

// Len returns the number of queued messages.
func (q *Queue) Len() int { return q.count }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return len(q.buf) }

// Clear drops every queued message.
func (q *Queue) Clear() {
	for i := range q.buf {
		q.buf[i] = ""
	}
	q.head, q.count = 0, 0
}
