// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package tcp

import (
	"sync"
	"sync/atomic"
	"time"
)

const defaultIdleWorkerLifetime = 5 * time.Second

// WorkerPool runs a handler over submitted tasks on a set of goroutines
// that grows on demand and shrinks when workers stay idle.
//
// A task is handed to an idle worker when one is waiting, otherwise a new
// worker is started. When the pool is capped with SetMaxWorkers and every
// worker is busy, AddTask blocks until a worker frees up or the pool stops.
type WorkerPool[T any] struct {
	handler      func(T)
	tasks        chan T
	stopCh       chan struct{}
	idleLifetime time.Duration
	maxWorkers   int32
	workers      atomic.Int32
	started      atomic.Bool
	stopped      atomic.Bool
	stopOnce     sync.Once
}

// NewWorkerPool creates a pool running handler for every task.
func NewWorkerPool[T any](handler func(T)) *WorkerPool[T] {
	return &WorkerPool[T]{
		handler:      handler,
		tasks:        make(chan T),
		stopCh:       make(chan struct{}),
		idleLifetime: defaultIdleWorkerLifetime,
	}
}

// SetIdleWorkerLifetime sets how long an idle worker waits for a task
// before exiting. It must be called before Start.
func (p *WorkerPool[T]) SetIdleWorkerLifetime(d time.Duration) {
	if d > 0 {
		p.idleLifetime = d
	}
}

// SetMaxWorkers caps the number of concurrent workers. Zero means no cap.
// It must be called before Start.
func (p *WorkerPool[T]) SetMaxWorkers(n int) {
	if n >= 0 {
		p.maxWorkers = int32(n)
	}
}

// Start makes the pool accept tasks.
func (p *WorkerPool[T]) Start() {
	p.started.Store(true)
}

// Stop prevents new tasks from being submitted and tells idle workers to
// exit. Busy workers exit once their current task returns. Stop does not
// wait for them.
func (p *WorkerPool[T]) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.stopCh)
	})
}

// Workers returns the number of live workers.
func (p *WorkerPool[T]) Workers() int {
	return int(p.workers.Load())
}

// AddTask submits a task for execution.
func (p *WorkerPool[T]) AddTask(task T) error {
	if !p.started.Load() {
		return ErrPoolNotStarted
	}

	if p.stopped.Load() {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
	}

	for {
		current := p.workers.Load()
		if p.maxWorkers > 0 && current >= p.maxWorkers {
			break
		}
		if p.workers.CompareAndSwap(current, current+1) {
			go p.work(task)
			return nil
		}
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.stopCh:
		return ErrPoolStopped
	}
}

func (p *WorkerPool[T]) work(task T) {
	defer p.workers.Add(-1)
	p.handler(task)

	timer := time.NewTimer(p.idleLifetime)
	defer timer.Stop()

	for {
		select {
		case next := <-p.tasks:
			p.handler(next)
			timer.Reset(p.idleLifetime)
		case <-timer.C:
			return
		case <-p.stopCh:
			return
		}
	}
}
