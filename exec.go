// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"

	"code.hybscloud.com/kont"
)

// endpointHandler runs conversation effects on one endpoint, waiting in
// receives up to each operation's own timeout.
type endpointHandler[R any] struct {
	ctx context.Context
	ep  *Endpoint
}

// Dispatch implements kont.Handler.
func (h endpointHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	eop, ok := op.(endpointDispatcher)
	if !ok {
		panic("qsock: unhandled effect in endpointHandler")
	}
	v, _ := eop.DispatchEndpoint(h.ctx, h.ep, true)
	return v, true
}

// Exec runs a Cont-world conversation on ep. Receives block up to their
// Timeout or until ctx is done, and then resume with nil.
func Exec[R any](ctx context.Context, ep *Endpoint, script kont.Eff[R]) R {
	return kont.Handle(script, endpointHandler[R]{ctx: ctx, ep: ep})
}

// ExecExpr runs an Expr-world conversation on ep; see Exec.
func ExecExpr[R any](ctx context.Context, ep *Endpoint, script kont.Expr[R]) R {
	return kont.HandleExpr(script, endpointHandler[R]{ctx: ctx, ep: ep})
}
