/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package controller

import "sync"

// keyedQueue runs functions FIFO per key, with different keys running
// concurrently. A worker goroutine exists only while its key has work
// and is reaped once the queue drains.
//
// This is what makes the per-room ordering guarantee hold: two events
// for the same room ID never interleave, and a slow platform call for
// one room never blocks another room's processing.
type keyedQueue struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	queues map[string][]func()
}

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{queues: make(map[string][]func())}
}

// Dispatch appends fn to the key's queue, starting a worker if the key
// was idle. Dispatch never blocks on fn.
func (q *keyedQueue) Dispatch(key string, fn func()) {
	q.mu.Lock()
	q.wg.Add(1)
	_, active := q.queues[key]
	q.queues[key] = append(q.queues[key], fn)
	q.mu.Unlock()

	if !active {
		go q.run(key)
	}
}

func (q *keyedQueue) run(key string) {
	for {
		q.mu.Lock()
		jobs := q.queues[key]
		if len(jobs) == 0 {
			// The map entry doubles as the worker-alive flag, so it
			// must be removed under the same lock as the emptiness
			// check.
			delete(q.queues, key)
			q.mu.Unlock()
			return
		}
		fn := jobs[0]
		q.queues[key] = jobs[1:]
		q.mu.Unlock()

		fn()
		q.wg.Done()
	}
}

// Wait blocks until every dispatched function has finished.
func (q *keyedQueue) Wait() {
	q.wg.Wait()
}
