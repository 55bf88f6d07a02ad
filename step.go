// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"

	"code.hybscloud.com/kont"
)

// Step evaluates a conversation until its first suspension.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](script kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(script)
}

// Advance dispatches the suspended operation on ep without blocking.
//
// On success the suspension is consumed and the conversation moves to its
// next operation or completes. If a receive cannot complete yet Advance
// returns iox.ErrWouldBlock with the suspension unconsumed, to be retried
// once the peer has sent more.
func Advance[R any](ctx context.Context, ep *Endpoint, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	eop, ok := susp.Op().(endpointDispatcher)
	if !ok {
		panic("qsock: unhandled effect in Advance")
	}
	v, err := eop.DispatchEndpoint(ctx, ep, false)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
