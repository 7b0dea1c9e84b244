package ioloop

import (
	"sync"
	"sync/atomic"
)

// Task is a unit of work submitted to a Worker's run-queue. Tasks run on
// the Worker's own goroutine, never concurrently with each other, so a Task
// may safely mutate state confined to the connections it was handed.
type Task func()

// Worker runs a single-threaded cooperative loop draining its own
// run-queue. It is the unit of confinement for per-connection state:
// anything created inside a Task submitted to Worker N stays on Worker N
// for its whole lifetime.
type Worker struct {
	id       int
	queue    chan Task
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
}

// NewWorker creates a Worker with a run-queue of the given capacity and
// starts its loop goroutine.
func NewWorker(id, queueCapacity int) *Worker {
	w := &Worker{
		id:     id,
		queue:  make(chan Task, queueCapacity),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.run()
	return w
}

// ID returns the worker's index within its pool.
func (w *Worker) ID() int { return w.id }

// Submit enqueues task for execution on this worker's goroutine. It
// returns false without enqueuing if the worker has been stopped.
func (w *Worker) Submit(task Task) bool {
	if w.stopped.Load() {
		return false
	}
	select {
	case w.queue <- task:
		return true
	case <-w.stopCh:
		return false
	}
}

// QueueLen returns the number of tasks currently waiting to run, useful for
// load-reporting across a Pool.
func (w *Worker) QueueLen() int { return len(w.queue) }

// Stop signals the worker to drain its current queue and exit. It does not
// block; call Wait to block until the loop has actually exited. Safe to
// call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		close(w.stopCh)
	})
}

// Wait blocks until the worker's loop goroutine has exited.
func (w *Worker) Wait() { <-w.doneCh }

func (w *Worker) run() {
	defer close(w.doneCh)
	for {
		select {
		case task := <-w.queue:
			task()
		case <-w.stopCh:
			// Drain whatever is already queued before exiting, so a Stop
			// call doesn't silently drop in-flight submissions.
			for {
				select {
				case task := <-w.queue:
					task()
				default:
					return
				}
			}
		}
	}
}
