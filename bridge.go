// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"code.hybscloud.com/kont"
)

// Reify turns a conversation built from SendThen, ExpectBind and the other
// closure-based helpers into its frame form. Use the frame form to drive
// an endpoint one operation at a time with Step and Advance, or to run it
// with ExecExpr and RunExpr. The bytes exchanged are the same either way.
func Reify[A any](m kont.Eff[A]) kont.Expr[A] {
	return kont.Reify(m)
}

// Reflect is the inverse of Reify: it lets a stepped conversation be
// composed with Bind and run by Exec or Run.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(m)
}
