// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"code.hybscloud.com/atomix"
)

// Completion receives the outcome of an asynchronous transfer: the error
// classification and the number of bytes transferred. It always runs on
// the caller's Executor, never on the initiating call stack, and fires
// exactly once per operation.
type Completion func(err error, n int)

// Operation lifecycle. Terminal state opCompleted is entered exactly once;
// no state is revisited.
const (
	opInitiated uint32 = iota
	opQueuedOnService
	opTransferred
	opQueuedOnCaller
	opCompleted
)

// pending is the one-shot continuation for an in-flight operation.
// Affine semantics as in kont.Suspension: advancing a consumed state
// panics rather than corrupting delivery.
type pending struct {
	ex       Executor
	work     *Work
	complete Completion
	state    atomix.Uint32
}

// newPending acquires a work token on the caller executor so the caller's
// context cannot consider itself idle while this operation is outstanding.
// The token is released only after the completion has run.
func newPending(ex Executor, c Completion) *pending {
	return &pending{ex: ex, work: ex.Work(), complete: c}
}

func (p *pending) advance(from, to uint32) {
	if !p.state.CompareAndSwap(from, to) {
		panic("aio: operation state revisited")
	}
}

// queued marks the transfer task as posted onto the service strand.
func (p *pending) queued() { p.advance(opInitiated, opQueuedOnService) }

// transferred marks the serialized transfer as done; err and n are fixed.
func (p *pending) transferred() { p.advance(opQueuedOnService, opTransferred) }

// deliver schedules (err, n) on the caller executor after the transfer.
// The hop is unconditional, even when the caller executor and the service
// strand share a context: the completion must always observe its own
// executor, not the service's.
func (p *pending) deliver(err error, n int) {
	p.advance(opTransferred, opQueuedOnCaller)
	p.schedule(err, n)
}

// fail schedules (err, 0) for an operation that never reached the service,
// e.g. a dead weak reference at initiation time.
func (p *pending) fail(err error) {
	p.advance(opInitiated, opQueuedOnCaller)
	p.schedule(err, 0)
}

func (p *pending) schedule(err error, n int) {
	p.ex.Post(func() {
		p.advance(opQueuedOnCaller, opCompleted)
		p.complete(err, n)
		p.work.Release()
	})
}
