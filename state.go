// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
)

// ChannelState owns the read and write handles of one side of a pairing.
// It moves from disconnected to connected through a single successful Init,
// and from any state to closed through Close. Closed is terminal.
//
// The zero value is a disconnected, open state.
type ChannelState struct {
	mu     sync.Mutex
	closed atomix.Uint32
	r      *Reader
	w      *Writer
}

// IsOpen reports whether Close has not been called yet.
func (s *ChannelState) IsOpen() bool {
	return s.closed.Load() == 0
}

// Init connects s to the peer's queue in and its own outbound queue out.
//
// A nil in means the pairing that should have produced it did not
// complete. Init then fails with KindInterrupted if ctx is done, and with
// KindConnectFailed otherwise. Init on a closed state fails with
// ErrSocketClosed, and on a connected one with ErrAlreadyConnected.
func (s *ChannelState) Init(ctx context.Context, in, out *Queue) error {
	if out == nil {
		panic("qsock: nil outbound queue")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.vacant(); err != nil {
		return err
	}
	if in == nil {
		if err := ctx.Err(); err != nil {
			return opError(KindInterrupted, "connect", err)
		}
		return ErrConnectFailed
	}
	s.r = in.Reader()
	s.w = out.Writer()
	return nil
}

// Vacant reports why s cannot take a connection, if it cannot: it fails
// with ErrSocketClosed once closed and with ErrAlreadyConnected once
// connected. Callers check it before pairing so that a refused pairing is
// never made.
func (s *ChannelState) Vacant() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vacant()
}

// vacant is Vacant with mu held.
func (s *ChannelState) vacant() error {
	if !s.IsOpen() {
		return ErrSocketClosed
	}
	if s.r != nil {
		return ErrAlreadyConnected
	}
	return nil
}

// ReadHandle returns the read side of the peer's queue.
func (s *ChannelState) ReadHandle() (*Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.r, nil
}

// WriteHandle returns the write side of this side's outbound queue.
func (s *ChannelState) WriteHandle() (*Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.w, nil
}

// check reports why the handles are unusable, if they are. Caller holds mu.
func (s *ChannelState) check() error {
	if !s.IsOpen() {
		return ErrSocketClosed
	}
	if s.r == nil {
		return ErrDisconnected
	}
	return nil
}

// Close moves s to the closed state and closes both handles. It is
// idempotent, and failures while closing the handles are discarded.
func (s *ChannelState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed.Store(1)
	if s.r != nil {
		_ = s.r.Close()
	}
	if s.w != nil {
		_ = s.w.Close()
	}
	s.r, s.w = nil, nil
}
