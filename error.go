// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// errorDispatcher is the error-effect side of kont.
type errorDispatcher[E any] interface {
	DispatchError(ctx *kont.ErrorContext[E]) (kont.Resumed, bool)
}

// endpointErrorHandler handles conversation and error effects.
// Dispatch order: endpoint, then error.
type endpointErrorHandler[E, A any] struct {
	ctx    context.Context
	ep     *Endpoint
	errCtx *kont.ErrorContext[E]
}

// Dispatch implements kont.Handler.
func (h endpointErrorHandler[E, A]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if eop, ok := op.(endpointDispatcher); ok {
		v, _ := eop.DispatchEndpoint(h.ctx, h.ep, true)
		return v, true
	}
	if eop, ok := op.(errorDispatcher[E]); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			return kont.Left[E, A](h.errCtx.Err), false
		}
		return v, true
	}
	panic("qsock: unhandled effect in endpointErrorHandler")
}

// ExecError runs a conversation with error effects on ep.
// Returns Right on completion and Left on the first Throw.
func ExecError[E, R any](ctx context.Context, ep *Endpoint, script kont.Eff[R]) kont.Either[E, R] {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[E, R]](script, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	var errCtx kont.ErrorContext[E]
	return kont.Handle(wrapped, endpointErrorHandler[E, R]{ctx: ctx, ep: ep, errCtx: &errCtx})
}

// ExecErrorExpr is ExecError for Expr-world conversations.
func ExecErrorExpr[E, R any](ctx context.Context, ep *Endpoint, script kont.Expr[R]) kont.Either[E, R] {
	wrapped := kont.ExprMap(script, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	var errCtx kont.ErrorContext[E]
	return kont.HandleExpr(wrapped, endpointErrorHandler[E, R]{ctx: ctx, ep: ep, errCtx: &errCtx})
}

// RunError is Run with error effects. Each side's result is Left if that
// side threw.
func RunError[E, A, B any](a kont.Eff[A], b kont.Eff[B]) (kont.Either[E, A], kont.Either[E, B]) {
	return RunErrorExpr[E](Reify(a), Reify(b))
}

// RunErrorExpr is RunExpr with error effects.
func RunErrorExpr[E, A, B any](a kont.Expr[A], b kont.Expr[B]) (kont.Either[E, A], kont.Either[E, B]) {
	epA, epB := NewPair()
	defer closeQuietly(epA, epB)

	resultA, suspA := StepError[E, A](a)
	resultB, suspB := StepError[E, B](b)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = AdvanceError[E](context.Background(), epA, suspA)
			if err == nil {
				progress = true
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = AdvanceError[E](context.Background(), epB, suspB)
			if err == nil {
				progress = true
			}
		}
		switch {
		case progress:
			bo.Reset()
		case suspA == nil:
			epB.peerDone.Store(1)
		case suspB == nil:
			epA.peerDone.Store(1)
		default:
			bo.Wait()
		}
	}
	return resultA, resultB
}

// StepError evaluates a conversation with error effects until its first
// suspension.
func StepError[E, R any](script kont.Expr[R]) (kont.Either[E, R], *kont.Suspension[kont.Either[E, R]]) {
	wrapped := kont.ExprMap(script, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	return kont.StepExpr(wrapped)
}

// AdvanceError dispatches the suspended operation on ep.
// Endpoint operations never block and report iox.ErrWouldBlock; error
// operations are eager, and Throw discards the suspension and returns Left.
func AdvanceError[E, R any](ctx context.Context, ep *Endpoint, susp *kont.Suspension[kont.Either[E, R]]) (kont.Either[E, R], *kont.Suspension[kont.Either[E, R]], error) {
	if eop, ok := susp.Op().(endpointDispatcher); ok {
		v, err := eop.DispatchEndpoint(ctx, ep, false)
		if err != nil {
			var zero kont.Either[E, R]
			return zero, susp, err
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	if eop, ok := susp.Op().(errorDispatcher[E]); ok {
		var errCtx kont.ErrorContext[E]
		v, _ := eop.DispatchError(&errCtx)
		if errCtx.HasErr {
			susp.Discard()
			return kont.Left[E, R](errCtx.Err), nil, nil
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	panic("qsock: unhandled effect in AdvanceError")
}
