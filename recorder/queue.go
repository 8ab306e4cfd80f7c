package recorder

import "sync"

// Queue is a growable ring buffer FIFO. Push never blocks; Ready delivers a
// wake-up after pushes so a consumer can sleep while the queue is empty.
type Queue[T any] struct {
	data      []T
	popIndex  int
	pushIndex int
	mu        sync.Mutex
	ready     chan struct{}
}

func CreateQueue[T any](initSize int) *Queue[T] {
	if initSize < 1 {
		initSize = 1
	}
	return &Queue[T]{
		data:  make([]T, initSize),
		ready: make(chan struct{}, 1),
	}
}

// |-1 0  1  2  3  4  5
// |   xy               size=0
// |   x  y             size=1
// |      y  x          size=5 N-x+y
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	size := q.size()
	if size+1 >= len(q.data) {
		q.data = growSlice(q.data, q.popIndex)
		q.popIndex = 0
		q.pushIndex = size
	}

	q.data[q.pushIndex] = item
	q.pushIndex = (q.pushIndex + 1) % len(q.data)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var none T
	if q.size() == 0 {
		return none, false
	}

	value := q.data[q.popIndex]
	q.data[q.popIndex] = none
	q.popIndex = (q.popIndex + 1) % len(q.data)
	return value, true
}

// Ready is signalled at least once after any number of pushes.
func (q *Queue[T]) Ready() <-chan struct{} { return q.ready }

func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size()
}

func (q *Queue[T]) IsEmpty() bool { return q.Size() == 0 }

func (q *Queue[T]) size() int {
	if q.popIndex <= q.pushIndex {
		return q.pushIndex - q.popIndex
	}
	return len(q.data) - q.popIndex + q.pushIndex
}

func growSlice[T any](slice []T, startIndex int) []T {
	capacity := len(slice)
	resized := make([]T, (capacity+1)*2)
	for i := 0; i < capacity; i++ {
		resized[i] = slice[(i+startIndex)%capacity]
	}
	return resized
}
