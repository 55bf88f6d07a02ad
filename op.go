// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// endpointDispatcher is the structural interface for conversation effects.
// With block unset DispatchEndpoint never waits: a receive that cannot
// complete yet returns iox.ErrWouldBlock and leaves the inbound queue as
// it found it. With block set receives wait up to their own Timeout and
// resume with nil on expiry.
type endpointDispatcher interface {
	DispatchEndpoint(ctx context.Context, ep *Endpoint, block bool) (kont.Resumed, error)
}

// Transmit is the effect operation for sending a chunk to the peer.
// Perform(Transmit{Data: b}) sends b. Sends on a closed endpoint are
// dropped.
type Transmit struct {
	kont.Phantom[struct{}]
	Data []byte
}

// DispatchEndpoint handles Transmit. Never blocks.
func (t Transmit) DispatchEndpoint(_ context.Context, ep *Endpoint, _ bool) (kont.Resumed, error) {
	_ = ep.SendMessage(t.Data)
	return struct{}{}, nil
}

// Expect is the effect operation for an exact read of Count bytes.
// It resumes with exactly Count bytes, or with nil if they did not all
// arrive within Timeout.
type Expect struct {
	kont.Phantom[[]byte]
	Count   int
	Timeout time.Duration
}

// DispatchEndpoint handles Expect.
func (e Expect) DispatchEndpoint(ctx context.Context, ep *Endpoint, block bool) (kont.Resumed, error) {
	if block {
		b, _ := ep.ReceivedBytes(ctx, e.Count, e.Timeout)
		return b, nil
	}
	b, ok := ep.in.TakeBytes(ctx, e.Count, true, 0)
	return pollResult(ep, b, ok)
}

// Gather is the effect operation for a best-effort read of up to Max
// bytes. It resumes with what arrived within Timeout, or with nil if
// nothing did.
type Gather struct {
	kont.Phantom[[]byte]
	Max     int
	Timeout time.Duration
}

// DispatchEndpoint handles Gather.
func (g Gather) DispatchEndpoint(ctx context.Context, ep *Endpoint, block bool) (kont.Resumed, error) {
	if block {
		b, _ := ep.AvailableBytes(ctx, g.Max, g.Timeout)
		return b, nil
	}
	b, ok := ep.in.TakeBytes(ctx, g.Max, false, 0)
	return pollResult(ep, b, ok)
}

// Await is the effect operation for receiving the next chunk as the peer
// sent it. It resumes with nil if none arrived within Timeout.
type Await struct {
	kont.Phantom[[]byte]
	Timeout time.Duration
}

// DispatchEndpoint handles Await.
func (a Await) DispatchEndpoint(ctx context.Context, ep *Endpoint, block bool) (kont.Resumed, error) {
	if block {
		b, _ := ep.NextReceivedBuffer(ctx, a.Timeout)
		return b, nil
	}
	b, ok, _ := ep.in.TakeChunk(ctx, 0)
	return pollResult(ep, b, ok)
}

// Hangup is the effect operation for ending the conversation.
// It closes the endpoint's inbound queue: the peer's later sends are
// rejected, while data already sent to the peer stays readable.
type Hangup struct {
	kont.Phantom[struct{}]
}

// DispatchEndpoint handles Hangup. Never blocks.
func (Hangup) DispatchEndpoint(_ context.Context, ep *Endpoint, _ bool) (kont.Resumed, error) {
	_ = ep.in.Close()
	return struct{}{}, nil
}

// pollResult converts a non-blocking receive into a dispatch result.
// A closed inbound queue, or a peer that has finished and can send no
// more, resumes with nil instead of blocking forever.
func pollResult(ep *Endpoint, b []byte, ok bool) (kont.Resumed, error) {
	if !ok && !ep.in.IsClosed() && ep.peerDone.Load() == 0 {
		return nil, iox.ErrWouldBlock
	}
	return b, nil
}
