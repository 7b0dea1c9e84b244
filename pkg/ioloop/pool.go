package ioloop

import "sync/atomic"

// Pool is a fixed-size group of I/O Workers. New connections are assigned
// to a worker by round-robin, per spec.md §5's "N worker threads" model.
type Pool struct {
	workers []*Worker
	next    atomic.Uint64
}

// NewPool creates a Pool of n Workers, each with the given per-worker
// run-queue capacity.
func NewPool(n, queueCapacity int) *Pool {
	if n <= 0 {
		n = 1
	}
	workers := make([]*Worker, n)
	for i := range workers {
		workers[i] = NewWorker(i, queueCapacity)
	}
	return &Pool{workers: workers}
}

// Next returns the next worker in round-robin order.
func (p *Pool) Next() *Worker {
	idx := p.next.Add(1) - 1
	return p.workers[idx%uint64(len(p.workers))]
}

// Workers returns the pool's worker set, for load inspection.
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Len returns the number of workers in the pool.
func (p *Pool) Len() int { return len(p.workers) }

// Stop signals every worker to stop, then waits for all of them to exit.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
	for _, w := range p.workers {
		w.Wait()
	}
}
