// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"math"
)

// Stream is the per-caller adapter exposing asynchronous transfers against
// a Service. It holds the caller's executor affinity and a weak service
// reference; creating one is cheap and it may freely outlive, or be
// outlived by, the service.
//
// A Stream supports one in-flight operation at a time: its read cursor is
// advanced by the serialized transfer task, so overlapping operations on
// the same Stream would race on it. Use one Stream per concurrent caller.
type Stream struct {
	ex     Executor
	svc    Weak
	cursor int
	limit  int       // exclusive read bound, cursor ≤ limit
	eff    *effState // in-flight effect-world operation, if any
}

// NewStream creates an unbounded stream: reads stop only at the end of
// available data, writes are never range-limited.
func NewStream(ex Executor, h *Handle) *Stream {
	return NewStreamRange(ex, h, 0, math.MaxInt)
}

// NewStreamRange creates a stream whose reads cover [start, limit):
// reads stop at limit even if more data exists, reporting iox.EOF once
// the range is fully consumed.
func NewStreamRange(ex Executor, h *Handle, start, limit int) *Stream {
	return &Stream{ex: ex, svc: h.Weak(), cursor: start, limit: limit}
}

// AsyncReadSome initiates a read of up to len(p) bytes into p and returns
// immediately. The completion runs on the stream's executor, exactly once,
// never on this call stack, with one of the classifications in the package
// doc. The caller must keep p and the stream alive until it fires.
//
// The transfer itself runs as a task on the service strand; the task holds
// its own strong reference, so a Handle closed mid-flight still completes
// this operation normally.
func (st *Stream) AsyncReadSome(p []byte, c Completion) {
	op := newPending(st.ex, c)
	strong, ok := st.svc.Promote()
	if !ok {
		op.fail(ErrBadDescriptor)
		return
	}
	op.queued()
	svc := strong.service()
	svc.strand.Post(func() {
		defer strong.Release()
		n, err := svc.readAt(st.cursor, st.limit, p)
		st.cursor += n
		op.transferred()
		op.deliver(err, n)
	})
}

// AsyncWriteSome initiates a write of the bytes in p into the service and
// returns immediately; the same completion contract as AsyncReadSome
// applies. A fully accepted p completes with iox.EOF and n == len(p);
// a capacity-bounded service may instead complete with iox.ErrWouldBlock
// and the partial count it took.
func (st *Stream) AsyncWriteSome(p []byte, c Completion) {
	op := newPending(st.ex, c)
	strong, ok := st.svc.Promote()
	if !ok {
		op.fail(ErrBadDescriptor)
		return
	}
	op.queued()
	svc := strong.service()
	svc.strand.Post(func() {
		defer strong.Release()
		n, err := svc.accept(p)
		op.transferred()
		op.deliver(err, n)
	})
}
