// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import "sync"

// Item is one queue entry: either a text delta or the final sentinel.
type Item struct {
	Text string
	// IsError marks the "[Error] ..." chunk. It is displayed but is not part
	// of the reply.
	IsError bool

	// Done marks the sentinel. It is always the last item of a request.
	Done bool
	// Final is the last cumulative reply the worker observed.
	Final string
	// Err is the engine error, if the stream failed. Its message has
	// already been queued as an "[Error] ..." text item.
	Err error
}

// Queue is an unbounded FIFO shared by one worker and the UI pump.
type Queue struct {
	mu    sync.Mutex
	items []Item
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Put appends an item.
func (q *Queue) Put(it Item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
}

// TryGet pops the oldest item without blocking.
func (q *Queue) TryGet() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	it := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]
	return it, true
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
