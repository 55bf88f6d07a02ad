// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Endpoint is an application's handle on one side of a completed pairing.
// It sends on its own outbound queue and receives from the peer's.
//
// Receive operations report a timeout, a cancelled ctx and a closed queue
// the same way: a false ok. Callers at this level only check ok.
type Endpoint struct {
	id   uuid.UUID
	addr string
	port int
	in   *Queue
	out  *Queue

	// peerDone is set by Run once the other side's script has finished.
	peerDone atomix.Uint32
}

func newEndpoint(addr string, port int, in, out *Queue) *Endpoint {
	return &Endpoint{
		id:   uuid.New(),
		addr: addr,
		port: port,
		in:   in,
		out:  out,
	}
}

// NewPair creates two endpoints wired directly to each other, without a
// registry.
func NewPair() (*Endpoint, *Endpoint) {
	ab := NewQueue()
	ba := NewQueue()
	return newEndpoint(localhostAddress, 0, ba, ab), newEndpoint(localhostAddress, 0, ab, ba)
}

// ID returns the unique identifier of ep.
func (ep *Endpoint) ID() uuid.UUID {
	return ep.id
}

// Addr returns the address the pairing was made on.
func (ep *Endpoint) Addr() string {
	return ep.addr
}

// Port returns the port the pairing was made on.
func (ep *Endpoint) Port() int {
	return ep.port
}

// Inbound returns the queue ep receives from.
func (ep *Endpoint) Inbound() *Queue {
	return ep.in
}

// Outbound returns the queue ep sends on.
func (ep *Endpoint) Outbound() *Queue {
	return ep.out
}

// SendMessage sends msg to the peer as one chunk. It never blocks.
func (ep *Endpoint) SendMessage(msg []byte) error {
	_, err := ep.out.Writer().Write(msg)
	return err
}

// SendString sends the bytes of s to the peer as one chunk.
func (ep *Endpoint) SendString(s string) error {
	return ep.out.enqueue([]byte(s))
}

// NextReceivedBuffer returns the next chunk the peer sent, waiting at most
// timeout.
func (ep *Endpoint) NextReceivedBuffer(ctx context.Context, timeout time.Duration) ([]byte, bool) {
	b, ok, err := ep.in.TakeChunk(ctx, timeout)
	if err != nil {
		return nil, false
	}
	return b, ok
}

// NextReceivedString is NextReceivedBuffer decoded as a string.
func (ep *Endpoint) NextReceivedString(ctx context.Context, timeout time.Duration) (string, bool) {
	b, ok := ep.NextReceivedBuffer(ctx, timeout)
	if !ok {
		return "", false
	}
	return string(b), true
}

// ReceivedBytes returns exactly count received bytes, waiting at most
// timeout. If fewer arrived in time it returns (nil, false) and keeps them
// for a later call.
func (ep *Endpoint) ReceivedBytes(ctx context.Context, count int, timeout time.Duration) ([]byte, bool) {
	return ep.in.TakeBytes(ctx, count, true, timeout)
}

// AvailableBytes returns between 1 and maxCount received bytes, waiting at
// most timeout for them. It returns (nil, false) only if none arrived.
func (ep *Endpoint) AvailableBytes(ctx context.Context, maxCount int, timeout time.Duration) ([]byte, bool) {
	return ep.in.TakeBytes(ctx, maxCount, false, timeout)
}

// Close closes both of ep's queues. The peer's receives then fail and its
// sends are rejected.
func (ep *Endpoint) Close() error {
	return multierr.Append(ep.in.Close(), ep.out.Close())
}

func (ep *Endpoint) String() string {
	return "endpoint(" + Key(ep.addr, ep.port) + " " + ep.id.String() + ")"
}
