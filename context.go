// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// taskQueueCapacity bounds a Context's ready queue. 1024 keeps the FAA ring
// within a few pages while leaving ample headroom before posters back off;
// posting to a full queue waits with iox.Backoff, it does not fail.
const taskQueueCapacity = 1024

// Task is a unit of work runnable on a Context or Strand.
// Tasks must not block: a blocked task stalls every strand scheduled on
// the same worker.
type Task = func()

// Executor is the caller-facing affinity handle: something completions can
// be posted to and whose idleness can be deferred with a Work token.
// Both [Context] and [Strand] satisfy it.
type Executor interface {
	Post(t Task)
	Work() *Work
}

// Context is an execution context: a bounded multi-producer multi-consumer
// task queue drained by however many goroutines call Run.
type Context struct {
	tasks   lfq.Queue[Task]
	ops     atomix.Int64  // tasks queued or currently running
	work    atomix.Int64  // outstanding Work tokens
	stopped atomix.Uint32 // 1 after Stop
}

// NewContext creates an execution context. Workers are whatever goroutines
// the caller points at Run; the context itself spawns nothing.
func NewContext() *Context {
	return &Context{tasks: lfq.NewMPMC[Task](taskQueueCapacity)}
}

// Post appends t to the ready queue. Safe for concurrent use from any
// goroutine. When the bounded queue is full, Post waits with iox.Backoff.
// After Stop the task is dropped: a stopped context degrades to dropped
// work and must never sit on a correctness-bearing path.
func (c *Context) Post(t Task) {
	if c.stopped.Load() != 0 {
		return
	}
	c.ops.Add(1)
	var bo iox.Backoff
	for c.tasks.Enqueue(&t) != nil {
		if c.stopped.Load() != 0 {
			c.ops.Add(-1)
			return
		}
		bo.Wait()
	}
}

// Run executes queued tasks until the context is stopped or runs out of
// work: no task queued, no task running, and no Work token outstanding.
// Multiple goroutines may call Run concurrently; each acts as a worker.
func (c *Context) Run() {
	var bo iox.Backoff
	for {
		t, err := c.tasks.Dequeue()
		if err == nil {
			bo.Reset()
			t()
			c.ops.Add(-1)
			continue
		}
		if c.stopped.Load() != 0 {
			return
		}
		if c.ops.Load() == 0 && c.work.Load() == 0 {
			return
		}
		bo.Wait()
	}
}

// Poll runs the tasks that are ready right now without waiting and returns
// how many ran. Useful for single-threaded stepping (see Advance) and for
// driving a caller-side context deterministically in tests.
func (c *Context) Poll() int {
	n := 0
	for {
		t, err := c.tasks.Dequeue()
		if err != nil {
			return n
		}
		t()
		c.ops.Add(-1)
		n++
	}
}

// Stop makes Run return and subsequent Posts drop their task.
// Already-queued tasks are abandoned, matching the platform "dropped work"
// degradation for shut-down contexts.
func (c *Context) Stop() {
	c.stopped.Store(1)
}

// Stopped reports whether Stop has been called.
func (c *Context) Stopped() bool { return c.stopped.Load() != 0 }

// Work acquires a work token: while any token is outstanding, Run keeps
// polling instead of returning, so a context stays alive across the window
// between initiating an async operation and its completion being posted.
func (c *Context) Work() *Work {
	c.work.Add(1)
	return &Work{c: c}
}

// Work is a lifetime-extending token preventing a Context from idling out.
// Release is idempotent.
type Work struct {
	c        *Context
	released atomix.Uint32
}

// Release returns the token. Safe to call more than once; only the first
// call decrements the outstanding-work count.
func (w *Work) Release() {
	if w.released.CompareAndSwap(0, 1) {
		w.c.work.Add(-1)
	}
}
