// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock_test

import (
	"context"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/qsock"
	"go.uber.org/zap/zaptest"
)

// execExpr drives a script to completion on ep via Step+Advance loop.
// Retries on iox.ErrWouldBlock (peer not ready yet).
// Used by stepping tests to exercise the non-blocking path.
func execExpr[R any](ctx context.Context, ep *qsock.Endpoint, script kont.Expr[R]) R {
	result, susp := qsock.Step[R](script)
	for susp != nil {
		var err error
		result, susp, err = qsock.Advance(ctx, ep, susp)
		if err != nil {
			continue
		}
	}
	return result
}

// newTestRegistry returns an isolated registry logging to t.
func newTestRegistry(t testing.TB, opts ...qsock.Option) *qsock.Registry {
	t.Helper()
	return qsock.NewRegistry(append([]qsock.Option{qsock.WithLogger(zaptest.NewLogger(t))}, opts...)...)
}
