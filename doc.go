// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package aio provides asynchronous byte streams over serialized execution
// contexts.
//
// A [Service] owns mutable byte data and is bound one-to-one to a [Strand],
// a serialized task queue on an execution [Context]. All access to the data
// happens as tasks on that strand; there is no mutex anywhere in the design.
// A [Stream] is a cheap per-caller adapter holding a [Weak] reference to the
// service: like a file descriptor, it observes the service's destruction as
// an ordinary I/O error rather than undefined behavior.
//
// # Architecture
//
//   - Execution: [Context] is a multi-worker task queue backed by bounded
//     lock-free queues via [code.hybscloud.com/lfq]. [Strand] serializes
//     tasks posted from any goroutine, one at a time, in post order.
//   - Ownership: [Handle] is the sole strong owner of a [Service]. [Weak]
//     references promote-or-fail; teardown always runs on the service strand.
//   - Non-blocking: transfers classify their outcome with
//     [code.hybscloud.com/iox] semantics ([code.hybscloud.com/iox.ErrWouldBlock]
//     means retry later; no internal retry loop exists).
//   - Completion: results hop back to the caller's executor and fire there
//     exactly once, never on the initiating call stack.
//
// # API Topologies
//
//   - Callback world: [Stream.AsyncReadSome] and [Stream.AsyncWriteSome]
//     initiate a transfer and deliver (error, count) through a [Completion]
//     on the caller's [Executor].
//   - Effect world: [ReadSome] and [WriteSome] are effect operations on
//     [code.hybscloud.com/kont]; evaluate with [Exec]/[ExecExpr], or step
//     with [Step] and [Advance] for proactor-style integration. Bridge via
//     [Reify] and [Reflect]; [Loop] builds retrying protocols.
//
// # Error Classification
//
// Every completion carries exactly one classification:
//
//   - [ErrBadDescriptor]: the backing service no longer exists.
//   - [code.hybscloud.com/iox.ErrWouldBlock]: no data available yet.
//   - [code.hybscloud.com/iox.EOF]: the requested range was fully
//     transferred.
//   - [code.hybscloud.com/iox.ErrShortBuffer]: the caller's buffer filled
//     before the range or the available data ran out.
//   - [ErrFault]: internal invariant violated; surfaced, never swallowed.
//
// # Example
//
//	svcCtx := aio.NewContext()
//	w := svcCtx.Work()
//	go svcCtx.Run()
//
//	h := aio.New(svcCtx, aio.WithData([]byte("abcdefgh")))
//	callerCtx := aio.NewContext()
//	st := aio.NewStreamRange(callerCtx, h, 0, 3)
//
//	buf := make([]byte, 10)
//	st.AsyncReadSome(buf, func(err error, n int) {
//		// runs on callerCtx: err == iox.EOF, n == 3
//	})
//	callerCtx.Run()
//	h.CloseWait()
//	w.Release()
package aio
