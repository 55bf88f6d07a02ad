// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"time"

	"code.hybscloud.com/kont"
)

// Loop repeats step from initial until it returns Right. Left carries the
// state into the next round.
//
// A round usually ends on a receive. Await, Gather and Expect resume with
// nil when nothing (or, for Expect, not enough) arrived: on timeout, after
// a hangup, or under Run once the peer has finished and its data is used
// up. Treat that nil as the end of the conversation and return Right, or
// the loop keeps receiving nil forever.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, step)
		}
		done, _ := e.GetRight()
		return kont.Pure(done)
	})
}

// Drain receives chunks until a receive resumes with nil and passes their
// concatenation to f. Each chunk is awaited for at most timeout. f gets an
// empty, non-nil slice if nothing arrived at all.
func Drain[B any](timeout time.Duration, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	collect := Loop([]byte{}, func(acc []byte) kont.Eff[kont.Either[[]byte, []byte]] {
		return AwaitBind(timeout, func(chunk []byte) kont.Eff[kont.Either[[]byte, []byte]] {
			if chunk == nil {
				return kont.Pure(kont.Right[[]byte, []byte](acc))
			}
			return kont.Pure(kont.Left[[]byte, []byte](append(acc, chunk...)))
		})
	})
	return kont.Bind(collect, f)
}
