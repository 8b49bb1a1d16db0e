// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"time"

	"code.hybscloud.com/iox"
)

// Service owns the mutable byte data accessed by streams. It is bound
// one-to-one to a Strand, and every access — adapter transfers, scheduled
// activity, teardown — runs as a task on that strand. The service exposes
// no other synchronization; the strand is the lock.
type Service struct {
	strand *Strand
	cell   *cell // backref for weak self-capture by the activity chain

	data []byte
	capv int // bound on len(data) enforced by accept; 0 = unbounded

	every time.Duration
	left  int
	act   func(*Service)
	timer *time.Timer
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithData seeds the service's byte data. The slice is copied.
func WithData(p []byte) Option {
	return func(s *Service) {
		s.data = append([]byte(nil), p...)
	}
}

// WithCapacity bounds the service's data to n bytes, enabling write
// backpressure: writes that cannot be fully accepted report
// iox.ErrWouldBlock with the count actually taken. The default service
// is unbounded and never pushes back.
func WithCapacity(n int) Option {
	return func(s *Service) {
		s.capv = n
	}
}

// WithActivity schedules fn to run on the service strand times times,
// every interval apart, starting as soon as the service is constructed.
// The chain holds only a weak self-reference across each delay, so closing
// the Handle ends it early.
func WithActivity(every time.Duration, times int, fn func(*Service)) Option {
	return func(s *Service) {
		s.every = every
		s.left = times
		s.act = fn
	}
}

func newService(ctx *Context, opts ...Option) *Service {
	s := &Service{strand: NewStrand(ctx)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// start posts the activity kickoff. Posted, never called: New may run on a
// foreign context and the first activity step must already be serialized.
func (s *Service) start() {
	if s.act == nil || s.left <= 0 {
		return
	}
	w := Weak{s.cell}
	s.strand.Post(func() { s.runActivity(w) })
}

// runActivity executes one scheduled step on the strand and rearms the
// timer. Promotion guards the step: once the last strong reference is
// gone the chain just stops, the timer fires into a failed promotion.
func (s *Service) runActivity(w Weak) {
	strong, ok := w.Promote()
	if !ok {
		return
	}
	defer strong.Release()
	s.act(s)
	s.left--
	if s.left <= 0 {
		return
	}
	s.timer = time.AfterFunc(s.every, func() {
		s.strand.Post(func() { s.runActivity(w) })
	})
}

// finalize is the service destructor. Reached only through the last
// Strong.Release, which by construction happens inside a strand task.
func (s *Service) finalize() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.data = nil
	s.act = nil
}

// Data returns the service's byte data. Strand tasks only.
func (s *Service) Data() []byte { return s.data }

// Append appends p to the service's data, ignoring any capacity bound;
// it is the producer-side primitive. Strand tasks only.
func (s *Service) Append(p ...byte) {
	s.data = append(s.data, p...)
}

// Consume removes and returns the first n bytes of the service's data
// (fewer if less is buffered); the consumer-side primitive. Strand tasks
// only.
func (s *Service) Consume(n int) []byte {
	if n > len(s.data) {
		n = len(s.data)
	}
	drained := append([]byte(nil), s.data[:n]...)
	s.data = s.data[n:]
	return drained
}

// readAt copies bytes from data[cursor:] into p, stopping at the exclusive
// limit, the end of p, or the end of currently available data — whichever
// comes first. Classification, in guard order: limit reached ⇒ iox.EOF;
// p exhausted ⇒ iox.ErrShortBuffer; no data at cursor ⇒ iox.ErrWouldBlock.
// A pass through the guards that then fails to copy anything is a broken
// invariant and reports ErrFault. Strand tasks only.
func (s *Service) readAt(cursor, limit int, p []byte) (int, error) {
	n := 0
	for {
		if cursor >= limit {
			return n, iox.EOF
		}
		if n == len(p) {
			return n, iox.ErrShortBuffer
		}
		if cursor >= len(s.data) {
			return n, iox.ErrWouldBlock
		}
		end := len(s.data)
		if limit < end {
			end = limit
		}
		c := copy(p[n:], s.data[cursor:end])
		if c == 0 {
			return n, ErrFault
		}
		n += c
		cursor += c
	}
}

// accept appends bytes from p to the service's data, honoring the
// capacity bound. A fully drained input reports iox.EOF (all requested
// bytes were taken); anything less reports iox.ErrWouldBlock with the
// count actually accepted. Strand tasks only.
func (s *Service) accept(p []byte) (int, error) {
	if s.capv > 0 {
		free := s.capv - len(s.data)
		if free <= 0 {
			return 0, iox.ErrWouldBlock
		}
		if free < len(p) {
			s.data = append(s.data, p[:free]...)
			return free, iox.ErrWouldBlock
		}
	}
	s.data = append(s.data, p...)
	return len(p), iox.EOF
}
