// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/aio"
	"code.hybscloud.com/iox"
)

// recorder captures completion deliveries. Only touch it from the
// goroutine that polls the caller context.
type recorder struct {
	fired int
	n     int
	err   error
}

func (r *recorder) completion() aio.Completion {
	return func(err error, n int) {
		r.fired++
		r.err = err
		r.n = n
	}
}

// drive polls every given context on the calling goroutine until cond
// holds. Keeping all task execution on the test goroutine makes the
// scenario tests deterministic and race-detector clean.
func drive(tb testing.TB, cond func() bool, ctxs ...*aio.Context) {
	tb.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var bo iox.Backoff
	for !cond() {
		progress := 0
		for _, c := range ctxs {
			progress += c.Poll()
		}
		if progress > 0 {
			bo.Reset()
			continue
		}
		if time.Now().After(deadline) {
			tb.Fatal("timed out driving contexts")
		}
		bo.Wait()
	}
}

// closeNow closes h and polls svcCtx until the teardown task has run,
// for single-goroutine tests where CloseWait would starve the strand.
func closeNow(tb testing.TB, h *aio.Handle, svcCtx *aio.Context) {
	tb.Helper()
	h.Close()
	w := h.Weak()
	drive(tb, func() bool {
		strong, ok := w.Promote()
		if ok {
			// Not the last reference here: the probe and the pending
			// close task cannot both hold it on a single goroutine.
			strong.Release()
			return false
		}
		return true
	}, svcCtx)
}

// runWorkers points n goroutines at ctx.Run, pinned by a work token so
// the context survives idle gaps. The returned stop releases the token,
// stops the context, and waits for the workers to exit.
func runWorkers(ctx *aio.Context, n int) (stop func()) {
	w := ctx.Work()
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.Run()
		}()
	}
	return func() {
		w.Release()
		ctx.Stop()
		wg.Wait()
	}
}
