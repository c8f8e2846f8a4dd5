package generic

import "container/heap"

type queueItem[T any] struct {
	value    T
	priority float64
	seq      uint64
}

type queueHeap[T any] struct {
	items []queueItem[T]
}

func (h *queueHeap[T]) Len() int {
	return len(h.items)
}

// Less orders by priority, then by insertion so equal priorities stay FIFO.
func (h *queueHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (h *queueHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *queueHeap[T]) Push(x any) {
	h.items = append(h.items, x.(queueItem[T]))
}

func (h *queueHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem[T]{}
	h.items = old[:n-1]
	return item
}

// PriorityQueue is a min-heap keyed by float priority. Not safe for concurrent use.
type PriorityQueue[T any] struct {
	h   queueHeap[T]
	seq uint64
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

func (q *PriorityQueue[T]) Enqueue(value T, priority float64) {
	heap.Push(&q.h, queueItem[T]{value: value, priority: priority, seq: q.seq})
	q.seq++
}

func (q *PriorityQueue[T]) Dequeue() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.h).(queueItem[T]).value, true
}

func (q *PriorityQueue[T]) Len() int {
	return q.h.Len()
}

func (q *PriorityQueue[T]) IsEmpty() bool {
	return q.h.Len() == 0
}
