// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Run creates an endpoint pair, runs a on one end and b on the other, and
// returns both results. Both sides are interleaved on the calling
// goroutine, backing off (iox.Backoff) while neither can make progress.
//
// Receive timeouts do not apply under Run: a receive waits until the peer
// sends or hangs up. Once one side has finished, the other side still
// receives everything it was sent; only a receive that this data cannot
// satisfy resumes with nil, and an exact read that falls short leaves its
// bytes queued for the next receive. Both endpoints are closed on return.
func Run[A, B any](a kont.Eff[A], b kont.Eff[B]) (A, B) {
	return RunExpr(Reify(a), Reify(b))
}

// RunExpr is Run for Expr-world conversations.
func RunExpr[A, B any](a kont.Expr[A], b kont.Expr[B]) (A, B) {
	epA, epB := NewPair()
	defer closeQuietly(epA, epB)

	ctx := context.Background()
	resultA, suspA := Step[A](a)
	resultB, suspB := Step[B](b)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			if resultA, suspA, err = Advance(ctx, epA, suspA); err == nil {
				progress = true
			}
		}
		if suspB != nil {
			var err error
			if resultB, suspB, err = Advance(ctx, epB, suspB); err == nil {
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

func closeQuietly(eps ...*Endpoint) {
	for _, ep := range eps {
		_ = ep.Close()
	}
}
