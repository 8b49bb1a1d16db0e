// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// mailboxCapacity bounds a Strand's mailbox. Strand tasks are small control
// messages (transfers, releases, activity steps); 1024 absorbs bursts from
// many posters without letting Post back off in practice.
const mailboxCapacity = 1024

// Strand is a serialized task queue bound to a [Context]: tasks posted from
// any goroutine run strictly one at a time, in post order, on whichever
// worker the context provides. Mutual exclusion comes from scheduling, not
// from a mutex — state owned by a strand is touched only from its tasks.
type Strand struct {
	ctx     *Context
	mailbox lfq.Queue[Task]
	pending atomix.Int64 // completed enqueues not yet drained
}

// NewStrand creates a serialized queue on ctx.
func NewStrand(ctx *Context) *Strand {
	return &Strand{ctx: ctx, mailbox: lfq.NewMPSC[Task](mailboxCapacity)}
}

// Context returns the execution context this strand schedules on.
func (s *Strand) Context() *Context { return s.ctx }

// Work acquires a work token on the underlying context.
func (s *Strand) Work() *Work { return s.ctx.Work() }

// Post appends t to the strand's mailbox and, only on the 0→1 pending
// transition, schedules a drainer on the context. At most one drainer is
// ever scheduled, which is the whole serialization argument: the drainer
// runs mailbox tasks one at a time and returns only when the pending count
// reaches zero, so no two strand tasks ever overlap.
func (s *Strand) Post(t Task) {
	var bo iox.Backoff
	for s.mailbox.Enqueue(&t) != nil {
		if s.ctx.Stopped() {
			return
		}
		bo.Wait()
	}
	if s.pending.Add(1) == 1 {
		s.ctx.Post(s.drain)
	}
}

// drain is the single consumer of the mailbox. The pending count only
// counts completed enqueues, so every claimed item is already (or about to
// be) visible; the inner loop rides out the enqueue/visibility window.
func (s *Strand) drain() {
	for {
		t, err := s.mailbox.Dequeue()
		if err != nil {
			var bo iox.Backoff
			for err != nil {
				bo.Wait()
				t, err = s.mailbox.Dequeue()
			}
		}
		t()
		if s.pending.Add(-1) == 0 {
			return
		}
	}
}
