// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// offer is a caller parked on an exchange point.
// reply has room for exactly one answer, so the claimer never blocks.
type offer struct {
	role  Role
	queue *Queue
	reply chan answer
}

type answer struct {
	queue   *Queue
	outcome outcome
}

// exchangePoint is the meeting place of one rendezvous key.
// At most one offer waits at a time; the next caller claims it and both
// return. The point stays usable for later pairs.
type exchangePoint struct {
	mu      sync.Mutex
	waiting *offer
}

// exchange offers q under role and waits up to wait for a counterpart.
// A counterpart of the opposite role swaps queues with the caller; one of
// the same role makes both calls fail with outcomeMismatch.
func (p *exchangePoint) exchange(ctx context.Context, clk clock.Clock, m *metrics, role Role, q *Queue, wait time.Duration) (*Queue, outcome) {
	p.mu.Lock()
	if w := p.waiting; w != nil {
		p.waiting = nil
		p.mu.Unlock()
		if w.role == role {
			w.reply <- answer{outcome: outcomeMismatch}
			return nil, outcomeMismatch
		}
		w.reply <- answer{queue: q, outcome: outcomePaired}
		return w.queue, outcomePaired
	}
	o := &offer{role: role, queue: q, reply: make(chan answer, 1)}
	p.waiting = o
	p.mu.Unlock()

	m.waiting.Inc()
	defer m.waiting.Dec()
	t := clk.Timer(wait)
	defer t.Stop()

	var res outcome
	select {
	case a := <-o.reply:
		return a.queue, a.outcome
	case <-t.C:
		res = outcomeTimeout
	case <-ctx.Done():
		res = outcomeCancelled
	}

	p.mu.Lock()
	if p.waiting == o {
		p.waiting = nil
		p.mu.Unlock()
		return nil, res
	}
	p.mu.Unlock()

	// Claimed while giving up; the answer is already on its way.
	a := <-o.reply
	return a.queue, a.outcome
}
