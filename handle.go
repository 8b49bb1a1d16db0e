// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Serial is a monotonically increasing service identifier.
// Each call to New assigns the next serial value.
type Serial = uint32

// counter is the global monotonic counter for service serials.
var counter atomix.Uint32

// nextSerial returns the next monotonically increasing serial.
func nextSerial() Serial {
	return counter.Add(1)
}

// cell is the reference-counted core behind Handle, Strong and Weak.
// strong == 0 means expired; promotion can never resurrect it.
type cell struct {
	svc    *Service
	strong atomix.Int64
}

// Strong is an owning reference to a Service. It keeps the service alive
// for the duration of a serialized task and must be released when the task
// is done. The last release runs the service finalizer; since every release
// happens inside a strand task, finalization is serialized with every
// transfer and never overlaps an in-flight operation.
type Strong struct {
	c *cell
}

func (s Strong) service() *Service { return s.c.svc }

// Release drops the reference. Call only from a task on the service strand.
func (s Strong) Release() {
	if s.c.strong.Add(-1) == 0 {
		s.c.svc.finalize()
	}
}

// Weak observes a Service without extending its lifetime. Zero-cost to
// copy; a Stream resolves its Weak at call time, which is what makes
// dropping the Handle observable as ErrBadDescriptor instead of a race.
type Weak struct {
	c *cell
}

// Promote attempts to acquire a strong reference: increment-if-nonzero.
// Returns false once the last strong reference is gone; an expired weak
// reference can never be promoted again.
func (w Weak) Promote() (Strong, bool) {
	for {
		n := w.c.strong.Load()
		if n <= 0 {
			return Strong{}, false
		}
		if w.c.strong.CompareAndSwap(n, n+1) {
			return Strong{w.c}, true
		}
	}
}

// Handle is the sole strong owner of a Service. Exactly one Handle exists
// per service; it is the only source of weak references, and closing it is
// the only way to begin teardown.
type Handle struct {
	c      *cell
	serial Serial
	closed atomix.Uint32
	done   atomix.Uint32 // set once the posted teardown task has run
}

// New creates a Service bound to a fresh strand on ctx and returns its
// Handle. Any configured activity is kicked off by a task posted to the
// strand — never synchronously from New, which may run on a foreign
// context.
func New(ctx *Context, opts ...Option) *Handle {
	svc := newService(ctx, opts...)
	h := &Handle{c: &cell{svc: svc}, serial: nextSerial()}
	h.c.strong.Add(1)
	svc.cell = h.c
	svc.start()
	return h
}

// Serial returns the serial number assigned to this handle's service.
func (h *Handle) Serial() Serial { return h.serial }

// Weak returns a non-owning reference suitable for a Stream.
// It does not extend the service's lifetime.
func (h *Handle) Weak() Weak { return Weak{h.c} }

// Dispatch posts fn to run serialized on the service strand, with the
// service. This is the only surface the service exposes to collaborators:
// producers append and consumers drain exclusively through tasks here,
// never by touching buffers directly. After Close the task is dropped.
func (h *Handle) Dispatch(fn func(*Service)) {
	strong, ok := h.Weak().Promote()
	if !ok {
		return
	}
	svc := strong.service()
	svc.strand.Post(func() {
		defer strong.Release()
		fn(svc)
	})
}

// Close posts a task carrying the handle's strong reference to the service
// strand, so the final release — and the finalizer, if no operation is in
// flight — happens inside the serialized context. Fire-and-forget:
// the service is not gone when Close returns. Idempotent.
func (h *Handle) Close() {
	if !h.closed.CompareAndSwap(0, 1) {
		return
	}
	s := Strong{h.c}
	h.c.svc.strand.Post(func() {
		s.Release()
		h.done.Store(1)
	})
}

// CloseWait closes the handle and waits with iox.Backoff until the posted
// teardown task has run. Requires the service context to be running;
// on a stopped context the teardown degrades to dropped work and CloseWait
// must not be used.
func (h *Handle) CloseWait() {
	h.Close()
	var bo iox.Backoff
	for h.done.Load() == 0 {
		bo.Wait()
	}
}
