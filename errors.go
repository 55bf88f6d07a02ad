// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"errors"
	"fmt"
)

// Kind classifies the failures reported by queues, channel states and conns.
// A timeout is never an error: operations that wait report it through a
// false ok result instead.
type Kind uint8

const (
	// KindChannelClosed reports an operation on a queue after Close.
	KindChannelClosed Kind = iota + 1
	// KindSocketClosed reports use of a ChannelState after Close.
	KindSocketClosed
	// KindDisconnected reports use of a ChannelState before a successful Init.
	KindDisconnected
	// KindInterrupted reports a blocking wait abandoned because its context was done.
	KindInterrupted
	// KindConnectFailed reports a pairing that never completed while the caller
	// was not cancelled.
	KindConnectFailed
	// KindAlreadyConnected reports a second Init on a connected ChannelState.
	KindAlreadyConnected
)

var kindNames = [...]string{
	KindChannelClosed:    "channel closed",
	KindSocketClosed:     "socket closed",
	KindDisconnected:     "socket disconnected",
	KindInterrupted:      "operation interrupted",
	KindConnectFailed:    "cannot connect",
	KindAlreadyConnected: "socket already connected",
}

// String returns the human-readable name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("qsock.Kind(%d)", uint8(k))
}

// Error is the error type returned by this package.
// Two Errors match under errors.Is when their kinds are equal, so callers
// compare against the sentinel values below.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	s := "qsock: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Kind.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause, typically a context error.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors, one per Kind.
var (
	ErrClosedChannel    = &Error{Kind: KindChannelClosed}
	ErrSocketClosed     = &Error{Kind: KindSocketClosed}
	ErrDisconnected     = &Error{Kind: KindDisconnected}
	ErrInterrupted      = &Error{Kind: KindInterrupted}
	ErrConnectFailed    = &Error{Kind: KindConnectFailed}
	ErrAlreadyConnected = &Error{Kind: KindAlreadyConnected}
)

func opError(kind Kind, op string, cause error) error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf returns the Kind carried by err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
