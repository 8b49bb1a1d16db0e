// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aio

import (
	"code.hybscloud.com/kont"
)

// ReadSomeBind reads into p and passes the Result to f.
// Fuses Perform(ReadSome{Buf: p}) + Bind.
func ReadSomeBind[B any](p []byte, f func(Result) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(ReadSome{Buf: p}), f)
}

// WriteSomeBind writes the bytes in p and passes the Result to f.
// Fuses Perform(WriteSome{Buf: p}) + Bind.
func WriteSomeBind[B any](p []byte, f func(Result) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(WriteSome{Buf: p}), f)
}

// Loop runs a recursive stream protocol (Cont-world).
// step returns Left(nextState) to continue or Right(result) to finish.
// The usual shape is a read that maps Err == iox.ErrWouldBlock back to
// Left, re-issuing the operation until data arrives.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// Reify converts a Cont-world stream protocol to Expr-world.
// The resulting Expr can be evaluated with ExecExpr or stepped with
// Step and Advance.
func Reify[A any](m kont.Eff[A]) kont.Expr[A] {
	return kont.Reify(m)
}

// Reflect converts an Expr-world stream protocol to Cont-world.
// The resulting Eff can be evaluated with Exec.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(m)
}
