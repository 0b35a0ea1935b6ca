// Package pool implements a bounded FIFO task runner.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/zerr"
)

// ErrStopped completes tasks that were still queued when the pool stopped.
var ErrStopped = zerr.New("pool stopped")

// Task is a unit of work run by the pool.
type Task func() error

// Future is the pending result of a submitted task.
type Future struct {
	name string
	done chan struct{}
	err  error
}

func newFuture(name string) *Future {
	return &Future{name: name, done: make(chan struct{})}
}

// Name returns the name the task was submitted with.
func (f *Future) Name() string {
	return f.name
}

// Done is closed when the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

func (f *Future) complete(err error) {
	f.err = err
	close(f.done)
}

type job struct {
	fn     Task
	future *Future
}

// Pool runs submitted tasks in submission order with at most limit in flight.
// A failing task does not affect the others. Tasks may submit further tasks.
type Pool struct {
	limit int

	mu      sync.Mutex
	queue   []*job
	active  int
	stopped bool
	errs    error

	wg sync.WaitGroup
}

// New creates a Pool. A limit below one selects domain.DefaultConcurrency.
func New(limit int) *Pool {
	if limit < 1 {
		limit = domain.DefaultConcurrency
	}
	return &Pool{limit: limit}
}

// Submit queues fn under name and returns its future. After Stop the future
// completes immediately with ErrStopped.
func (p *Pool) Submit(name string, fn Task) *Future {
	f := newFuture(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		f.complete(ErrStopped)
		return f
	}

	p.wg.Add(1)
	p.queue = append(p.queue, &job{fn: fn, future: f})
	p.dispatch()
	return f
}

// Wait blocks until the queue is empty and no task is in flight, then returns
// the errors of all failed tasks joined together.
func (p *Pool) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs
}

// Stop prevents further dequeues. Queued tasks complete with ErrStopped;
// tasks in flight run to completion.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	for _, j := range p.queue {
		j.future.complete(ErrStopped)
		p.wg.Done()
	}
	p.queue = nil
}

// dispatch starts queued jobs while capacity allows. p.mu must be held.
func (p *Pool) dispatch() {
	for len(p.queue) > 0 && p.active < p.limit && !p.stopped {
		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]

		p.active++
		go p.run(j)
	}
}

func (p *Pool) run(j *job) {
	defer p.wg.Done()

	err := call(j.fn)
	j.future.complete(err)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.active--
	if err != nil {
		p.errs = errors.Join(p.errs, zerr.With(zerr.Wrap(err, "task failed"), "task", j.future.name))
	}
	p.dispatch()
}

func call(fn Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerr.New(fmt.Sprintf("task panicked: %v", r))
		}
	}()
	return fn()
}
