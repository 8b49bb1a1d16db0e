// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Result is the resume value of a stream effect operation: the byte count
// and the terminal classification delivered by the completion. Err is
// always non-nil — every transfer classifies its outcome — and
// Err == iox.ErrWouldBlock is an invitation to perform the operation
// again later, not a failure.
type Result struct {
	N   int
	Err error
}

// effState carries an in-flight asynchronous operation across dispatch
// calls. The completion (on the caller executor) publishes n and err,
// then releases done; dispatch observes done before reading them.
type effState struct {
	done atomix.Uint32
	n    int
	err  error
}

// streamDispatcher is the structural interface for stream effect
// operations. DispatchStream is non-blocking: the first call initiates
// the asynchronous transfer, and every call before the completion has
// been delivered returns iox.ErrWouldBlock (the I/O boundary).
type streamDispatcher interface {
	DispatchStream(st *Stream) (kont.Resumed, error)
}

// ReadSome is the effect operation for reading into Buf.
// Perform(ReadSome{Buf: p}) resumes with a Result once the underlying
// AsyncReadSome completion has been delivered.
type ReadSome struct {
	kont.Phantom[Result]
	Buf []byte
}

// DispatchStream handles ReadSome on the stream. First call initiates
// AsyncReadSome; subsequent calls poll for the delivered completion.
func (r ReadSome) DispatchStream(st *Stream) (kont.Resumed, error) {
	if st.eff == nil {
		e := &effState{}
		st.eff = e
		st.AsyncReadSome(r.Buf, func(err error, n int) {
			e.n, e.err = n, err
			e.done.Store(1)
		})
		return nil, iox.ErrWouldBlock
	}
	return st.harvest()
}

// WriteSome is the effect operation for writing the bytes in Buf.
// Perform(WriteSome{Buf: p}) resumes with a Result once the underlying
// AsyncWriteSome completion has been delivered.
type WriteSome struct {
	kont.Phantom[Result]
	Buf []byte
}

// DispatchStream handles WriteSome on the stream. First call initiates
// AsyncWriteSome; subsequent calls poll for the delivered completion.
func (w WriteSome) DispatchStream(st *Stream) (kont.Resumed, error) {
	if st.eff == nil {
		e := &effState{}
		st.eff = e
		st.AsyncWriteSome(w.Buf, func(err error, n int) {
			e.n, e.err = n, err
			e.done.Store(1)
		})
		return nil, iox.ErrWouldBlock
	}
	return st.harvest()
}

// harvest collects the delivered completion of the in-flight operation,
// or reports iox.ErrWouldBlock while it is still pending.
func (st *Stream) harvest() (kont.Resumed, error) {
	e := st.eff
	if e.done.Load() == 0 {
		return nil, iox.ErrWouldBlock
	}
	st.eff = nil
	return Result{N: e.n, Err: e.err}, nil
}

// streamHandler implements kont.Handler for stream effects, converting
// non-blocking dispatch into blocking evaluation for Exec/ExecExpr.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type streamHandler[R any] struct {
	st *Stream
}

// Dispatch implements kont.Handler via structural interface assertion.
// Waits past the iox.ErrWouldBlock boundary with adaptive backoff.
func (h streamHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	sop, ok := op.(streamDispatcher)
	if !ok {
		panic("aio: unhandled effect in streamHandler")
	}
	return dispatchWait(h.st, sop), true
}

// dispatchWait blocks until DispatchStream succeeds, backing off on
// iox.ErrWouldBlock with iox.Backoff. Progress requires the stream's
// executor and the service context to be pumped elsewhere (goroutines in
// their Run loops); for single-goroutine integration use Step and Advance
// with Context.Poll instead.
func dispatchWait(st *Stream, sop streamDispatcher) kont.Resumed {
	var bo iox.Backoff
	for {
		v, err := sop.DispatchStream(st)
		if err == nil {
			return v
		}
		bo.Wait()
	}
}

// Exec runs a Cont-world stream protocol against st.
// Blocks on iox.ErrWouldBlock via adaptive backoff (iox.Backoff),
// without spawning goroutines or creating channels.
func Exec[R any](st *Stream, protocol kont.Eff[R]) R {
	h := streamHandler[R]{st: st}
	return kont.Handle(protocol, h)
}

// ExecExpr runs an Expr-world stream protocol against st.
// Blocks on iox.ErrWouldBlock via adaptive backoff (iox.Backoff),
// without spawning goroutines or creating channels.
func ExecExpr[R any](st *Stream, protocol kont.Expr[R]) R {
	h := streamHandler[R]{st: st}
	return kont.HandleExpr(protocol, h)
}

// Step evaluates a stream protocol until the first effect suspension.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](protocol kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(protocol)
}

// Advance dispatches the suspended stream operation on st.
// DispatchStream is non-blocking: it returns iox.ErrWouldBlock while the
// operation's completion has not yet been delivered on the stream's
// executor (drive it with Context.Poll between calls).
//
// On success (nil error), the suspension is consumed and the protocol
// advances to the next effect or completion.
// On iox.ErrWouldBlock, the suspension is unconsumed and may be retried.
func Advance[R any](st *Stream, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	sop, ok := susp.Op().(streamDispatcher)
	if !ok {
		panic("aio: unhandled effect in Advance")
	}
	v, err := sop.DispatchStream(st)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
