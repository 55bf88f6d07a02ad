// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// minWait is the shortest wait handed to an exchange point, so a spent
// budget never turns into an unbounded or zero-length wait.
const minWait = time.Millisecond

// clientPoll is how often a client with no server yet looks for one.
const clientPoll = 10 * time.Millisecond

// Registry pairs clients and servers that name the same rendezvous key
// (see Key). Each key gets one exchange point, created by the first server
// that uses it and kept until Reset.
//
// A Registry is safe for concurrent use. Independent registries share
// nothing, so tests can isolate themselves by creating their own.
type Registry struct {
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics

	mu     sync.Mutex
	points map[string]*exchangePoint

	port       atomix.Uint32
	maxConnect atomix.Int64
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &Registry{
		log:     o.logger.Named("qsock"),
		clock:   o.clock,
		metrics: newMetrics(o.registerer),
		points:  make(map[string]*exchangePoint),
	}
	r.port.Store(EphemeralPortBase)
	r.maxConnect.Store(int64(o.maxConnectTime))
	return r
}

// MaxConnectTime returns how long Conn.Connect tries to pair when it is
// given no timeout of its own.
func (r *Registry) MaxConnectTime() time.Duration {
	return time.Duration(r.maxConnect.Load())
}

// SetMaxConnectTime sets MaxConnectTime. Non-positive values are ignored.
func (r *Registry) SetMaxConnectTime(d time.Duration) {
	if d > 0 {
		r.maxConnect.Store(int64(d))
	}
}

// NextEphemeralPort returns the next synthetic port number, for callers
// that did not pick one. The first value after NewRegistry or Reset is
// EphemeralPortBase+1.
func (r *Registry) NextEphemeralPort() int {
	return int(r.port.Add(1))
}

// Reset drops every exchange point and restarts the ephemeral port count.
// Callers already waiting keep waiting on the dropped points until their
// deadlines pass.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.points = make(map[string]*exchangePoint)
	r.mu.Unlock()
	r.port.Store(EphemeralPortBase)
	r.log.Debug("registry reset")
}

// PairAsClient offers out as a client's outbound queue on the key of addr
// and port, and waits up to timeout for a server.
// On success it returns the server's outbound queue, which is the client's
// inbound one. It returns (nil, false) on timeout, on cancellation, and
// when another client arrived instead.
func (r *Registry) PairAsClient(ctx context.Context, addr string, port int, out *Queue, timeout time.Duration) (*Queue, bool) {
	return r.pair(ctx, RoleClient, addr, port, out, timeout)
}

// PairAsServer is PairAsClient for the server side.
func (r *Registry) PairAsServer(ctx context.Context, addr string, port int, out *Queue, timeout time.Duration) (*Queue, bool) {
	return r.pair(ctx, RoleServer, addr, port, out, timeout)
}

// Connect pairs as a client and wraps the result in an Endpoint.
func (r *Registry) Connect(ctx context.Context, addr string, port int, timeout time.Duration) (*Endpoint, bool) {
	out := NewQueueWithClock(r.clock)
	in, ok := r.PairAsClient(ctx, addr, port, out, timeout)
	if !ok {
		return nil, false
	}
	return newEndpoint(addr, port, in, out), true
}

// Accept pairs as a server and wraps the result in an Endpoint.
func (r *Registry) Accept(ctx context.Context, addr string, port int, timeout time.Duration) (*Endpoint, bool) {
	out := NewQueueWithClock(r.clock)
	in, ok := r.PairAsServer(ctx, addr, port, out, timeout)
	if !ok {
		return nil, false
	}
	return newEndpoint(addr, port, in, out), true
}

// Loopback runs Connect and Accept on the same key concurrently and
// returns both ends. ok is false unless both sides paired.
func (r *Registry) Loopback(ctx context.Context, addr string, port int, timeout time.Duration) (client, server *Endpoint, ok bool) {
	var g errgroup.Group
	g.Go(func() error {
		client, _ = r.Connect(ctx, addr, port, timeout)
		return nil
	})
	g.Go(func() error {
		server, _ = r.Accept(ctx, addr, port, timeout)
		return nil
	})
	_ = g.Wait()
	if client == nil || server == nil {
		return nil, nil, false
	}
	return client, server, true
}

func (r *Registry) pair(ctx context.Context, role Role, addr string, port int, out *Queue, timeout time.Duration) (*Queue, bool) {
	if out == nil {
		panic("qsock: nil outbound queue")
	}
	start := r.clock.Now()
	key := Key(addr, port)
	log := r.log.With(zap.String("key", key), zap.Stringer("role", role), zap.Stringer("out", out))

	res := outcomeCancelled
	var in *Queue
	if ctx.Err() == nil {
		if p := r.point(ctx, key, role == RoleServer, start, timeout); p != nil {
			wait := max(minWait, timeout-r.clock.Since(start))
			in, res = p.exchange(ctx, r.clock, r.metrics, role, out, wait)
		} else if ctx.Err() == nil {
			res = outcomeTimeout
		}
	}

	r.metrics.observe(role, res)
	if res != outcomePaired {
		log.Debug("pairing failed", zap.Stringer("outcome", res), zap.Duration("elapsed", r.clock.Since(start)))
		return nil, false
	}
	log.Debug("paired", zap.Stringer("in", in))
	return in, true
}

// point returns the exchange point of key. Servers create it when it is
// missing; clients look again every clientPoll of r's clock until the
// deadline passes or ctx is done, and then return nil.
func (r *Registry) point(ctx context.Context, key string, create bool, start time.Time, timeout time.Duration) *exchangePoint {
	for {
		r.mu.Lock()
		p := r.points[key]
		if p == nil && create {
			p = &exchangePoint{}
			r.points[key] = p
		}
		r.mu.Unlock()
		if p != nil {
			return p
		}
		t := r.clock.Timer(clientPoll)
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		t.Stop()
		if r.clock.Since(start) >= timeout || ctx.Err() != nil {
			return nil
		}
	}
}
