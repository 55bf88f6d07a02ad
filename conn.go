// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// connectIteration bounds a single pairing attempt of a Conn.
	connectIteration = 30 * time.Millisecond
	// connectPause separates pairing attempts of a Conn.
	connectPause = 10 * time.Millisecond
)

// Conn is a socket-like stream over a pairing. Connect and Accept keep
// retrying short pairing attempts, so either side may arrive first and a
// transient same-role collision on the key resolves itself.
//
// Read, Write and Available report ErrDisconnected before a successful
// Connect or Accept and ErrSocketClosed after Close.
type Conn struct {
	reg   *Registry
	state ChannelState

	addr      string
	port      int
	localPort int
}

// NewConn creates an unconnected Conn that pairs through r.
func NewConn(r *Registry) *Conn {
	return &Conn{reg: r}
}

// Connect pairs c as a client on addr and port. A timeout <= 0 means the
// registry's MaxConnectTime. If no server paired in time Connect fails with
// KindConnectFailed, or with KindInterrupted if ctx was done. A connected
// or closed c fails at once, without pairing.
func (c *Conn) Connect(ctx context.Context, addr string, port int, timeout time.Duration) error {
	if err := c.state.Vacant(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = c.reg.MaxConnectTime()
	}
	c.addr, c.port = addr, port
	out := NewQueueWithClock(c.reg.clock)
	in := c.retry(ctx, timeout, func() (*Queue, bool) {
		return c.reg.PairAsClient(ctx, addr, port, out, connectIteration)
	})
	return c.init(ctx, in, out)
}

// Accept pairs c as a server on "localhost" and port, waiting until a
// client arrives, c is closed, or ctx is done. An accepted Conn gets a
// local port from the registry's ephemeral range.
func (c *Conn) Accept(ctx context.Context, port int) error {
	if err := c.state.Vacant(); err != nil {
		return err
	}
	c.addr, c.port = localhostAddress, port
	c.localPort = c.reg.NextEphemeralPort()
	out := NewQueueWithClock(c.reg.clock)
	in := c.retry(ctx, 0, func() (*Queue, bool) {
		return c.reg.PairAsServer(ctx, localhostAddress, port, out, connectIteration)
	})
	return c.init(ctx, in, out)
}

// init connects c to the paired queues. If c was closed while pairing,
// both queues are closed so the peer sees ErrClosedChannel instead of a
// connection nobody reads.
func (c *Conn) init(ctx context.Context, in, out *Queue) error {
	if err := c.state.Init(ctx, in, out); err != nil {
		if in != nil {
			_ = in.Close()
		}
		_ = out.Close()
		return err
	}
	return nil
}

// retry runs attempt until it pairs, c is closed, ctx is done, or limit
// has passed. A zero limit means no limit.
func (c *Conn) retry(ctx context.Context, limit time.Duration, attempt func() (*Queue, bool)) *Queue {
	clk := c.reg.clock
	start := clk.Now()
	for n := 1; c.state.IsOpen() && ctx.Err() == nil; n++ {
		if q, ok := attempt(); ok {
			return q
		}
		if limit > 0 && clk.Since(start) >= limit {
			break
		}
		t := clk.Timer(connectPause)
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		t.Stop()
		if n%32 == 0 {
			c.reg.log.Debug("still pairing",
				zap.String("key", Key(c.addr, c.port)),
				zap.Int("attempts", n),
				zap.Duration("elapsed", clk.Since(start)))
		}
	}
	return nil
}

// RemoteAddr returns the address c paired on.
func (c *Conn) RemoteAddr() string {
	return c.addr
}

// RemotePort returns the port c paired on.
func (c *Conn) RemotePort() int {
	return c.port
}

// LocalPort returns the ephemeral port assigned by Accept, or 0.
func (c *Conn) LocalPort() int {
	return c.localPort
}

// Read reads from the peer's queue; see Reader.Read.
func (c *Conn) Read(p []byte) (int, error) {
	r, err := c.state.ReadHandle()
	if err != nil {
		return 0, err
	}
	return r.Read(p)
}

// Write writes to c's outbound queue; see Writer.Write.
func (c *Conn) Write(p []byte) (int, error) {
	w, err := c.state.WriteHandle()
	if err != nil {
		return 0, err
	}
	return w.Write(p)
}

// Available returns the number of bytes readable without blocking.
func (c *Conn) Available() (int, error) {
	r, err := c.state.ReadHandle()
	if err != nil {
		return 0, err
	}
	return r.Available()
}

// Close closes c and both of its queues. It also stops a Connect or
// Accept in progress at its next attempt. Close always returns nil.
func (c *Conn) Close() error {
	c.state.Close()
	return nil
}
