// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package qsock provides in-process, socket-like duplex byte channels.
//
// Two parties pair by naming the same address and port on a [Registry]:
// one as client, one as server. Each party owns an outbound [Queue] and, on
// pairing, receives its peer's as its inbound queue. No network is
// involved; it is meant as a stand-in for real sockets in tests.
//
// # Architecture
//
//   - Transport: a [Queue] is an unbounded FIFO of byte chunks behind a
//     lock-free SPSC ring ([code.hybscloud.com/lfq]) with an ordered
//     overflow. Readers block with optional deadlines and cancellation.
//   - Rendezvous: a [Registry] maps keys built by [Key] to exchange points.
//     Servers create points; clients wait for them.
//   - Handles: [Endpoint] offers chunk and byte-count receives with
//     timeouts. [Conn] offers io.Reader and io.Writer semantics over a
//     [ChannelState], retrying pairing the way a socket retries a connect.
//   - Scripts: conversations composed from [Transmit], [Expect], [Gather],
//     [Await] and [Hangup] as algebraic effects on [code.hybscloud.com/kont].
//
// # Timeouts
//
// A timeout is never an error. Receive and pairing calls report it with a
// false ok; low-level reads report cancellation as [ErrInterrupted] and a
// closed queue as io.EOF.
//
// # Example
//
//	reg := qsock.NewRegistry()
//	client, server, ok := reg.Loopback(ctx, "localhost", 8080, time.Second)
//	if !ok {
//		return
//	}
//	_ = client.SendString("ping")
//	msg, _ := server.NextReceivedString(ctx, time.Second)
package qsock
