package subscriber

import (
	"context"
	"sync"
	"sync/atomic"
)

// workerPool runs a fixed number of workers. A package is handed over only when a worker is free,
// so the subscriber stops pulling from the transport while every worker is busy.
type workerPool struct {
	size    uint
	jobs    chan func()
	running atomic.Int64
	workers sync.WaitGroup
	closed  sync.Once
}

func newWorkerPool(size uint) *workerPool {
	return &workerPool{size: size, jobs: make(chan func())}
}

func (p *workerPool) start() {
	for i := uint(0); i < p.size; i++ {
		p.workers.Add(1)
		go p.work()
	}
}

func (p *workerPool) work() {
	defer p.workers.Done()

	for job := range p.jobs {
		job()
		p.running.Add(-1)
	}
}

// submit blocks until a worker takes the job. False is returned if ctx is done first, the job is not run then.
func (p *workerPool) submit(ctx context.Context, job func()) bool {
	p.running.Add(1)

	select {
	case p.jobs <- job:
		return true
	case <-ctx.Done():
		p.running.Add(-1)
		return false
	}
}

// busyWorkers is a number of jobs taken or being handed over to workers
func (p *workerPool) busyWorkers() int {
	return int(p.running.Load())
}

// close lets workers finish jobs in progress and exit. Nothing may be submitted after it.
func (p *workerPool) close() {
	p.closed.Do(func() {
		close(p.jobs)
	})
}
