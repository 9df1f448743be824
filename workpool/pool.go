/*
 * pool.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package workpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by futures submitted to a closed pool.
var ErrClosed = errors.New("workpool: pool is closed")

// PanicError is the error of a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workpool: task panicked: %v", e.Value)
}

// Pool runs tasks on at most Size goroutines at a time.
type Pool struct {
	size   int
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New returns a pool running at most size tasks at once. A size below 1 means 1.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Size returns the number of tasks the pool runs concurrently.
func (p *Pool) Size() int {
	return p.size
}

// Close waits for every submitted task to finish. Tasks submitted after
// Close fail with ErrClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Future is the handle of a submitted task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed when the task has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes and returns its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Submit queues fn on the pool and returns immediately.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	return submit(p, fn, nil)
}

func submit[T any](p *Pool, fn func() (T, error), finished func(*Future[T])) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		f.err = ErrClosed
		close(f.done)
		if finished != nil {
			finished(f)
		}
		return f
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		// Acquire only fails on a cancelled context.
		_ = p.sem.Acquire(context.Background(), 1)
		f.val, f.err = run(fn)
		p.sem.Release(1)
		close(f.done)
		if finished != nil {
			finished(f)
		}
	}()
	return f
}

func run[T any](fn func() (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Completion delivers the futures of the tasks submitted through it in
// the order they finish.
type Completion[T any] struct {
	pool    *Pool
	mu      sync.Mutex
	cond    *sync.Cond
	ready   []*Future[T]
	pending int
}

// NewCompletion returns an empty completion queue over p.
func NewCompletion[T any](p *Pool) *Completion[T] {
	c := &Completion[T]{pool: p}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Submit queues fn on the pool. Its future will be returned by Next.
func (c *Completion[T]) Submit(fn func() (T, error)) {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	submit(c.pool, fn, func(f *Future[T]) {
		c.mu.Lock()
		c.ready = append(c.ready, f)
		c.cond.Signal()
		c.mu.Unlock()
	})
}

// Pending returns the number of submitted futures not yet returned by Next.
func (c *Completion[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Next blocks until a task finishes and returns its future. It returns
// false when no task is pending.
func (c *Completion[T]) Next() (*Future[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == 0 {
		return nil, false
	}
	for len(c.ready) == 0 {
		c.cond.Wait()
	}
	f := c.ready[0]
	c.ready = c.ready[1:]
	c.pending--
	return f, true
}

// Drain waits for every pending task and discards the results.
func (c *Completion[T]) Drain() {
	for {
		if _, ok := c.Next(); !ok {
			return
		}
	}
}
