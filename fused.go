// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"time"

	"code.hybscloud.com/kont"
)

// SendThen sends data and then continues with next.
// Fuses Perform(Transmit{Data: data}) + Then.
func SendThen[B any](data []byte, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Transmit{Data: data}), next)
}

// ExpectBind reads exactly count bytes and passes them to f, or passes
// nil if they did not arrive within timeout.
// Fuses Perform(Expect{...}) + Bind.
func ExpectBind[B any](count int, timeout time.Duration, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Expect{Count: count, Timeout: timeout}), f)
}

// GatherBind reads up to max bytes and passes them to f, or passes nil if
// nothing arrived within timeout.
// Fuses Perform(Gather{...}) + Bind.
func GatherBind[B any](max int, timeout time.Duration, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Gather{Max: max, Timeout: timeout}), f)
}

// AwaitBind receives the next chunk and passes it to f, or passes nil if
// none arrived within timeout.
// Fuses Perform(Await{...}) + Bind.
func AwaitBind[B any](timeout time.Duration, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await{Timeout: timeout}), f)
}

// HangupDone hangs up and returns a.
// Fuses Perform(Hangup{}) + Then + Pure.
func HangupDone[A any](a A) kont.Eff[A] {
	return kont.Then(kont.Perform(Hangup{}), kont.Pure(a))
}
