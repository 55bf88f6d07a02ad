// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"time"
)

// TakeChunk returns the next chunk as it was written, or the unread
// remainder of a partially read one.
//
// It waits at most timeout; a timeout <= 0 only looks at what is already
// queued. On expiry it returns (nil, false, nil). If ctx is done first it
// fails with an error of kind KindInterrupted, and once the queue is
// closed it fails with ErrClosedChannel.
func (q *Queue) TakeChunk(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	var expiry <-chan time.Time
	if timeout > 0 {
		t := q.clock.Timer(timeout)
		defer t.Stop()
		expiry = t.C
	}
	for {
		if q.IsClosed() {
			return nil, false, ErrClosedChannel
		}
		q.rmu.Lock()
		if q.fill() {
			c := q.cur
			q.cur = nil
			q.rmu.Unlock()
			return c, true, nil
		}
		q.rmu.Unlock()
		if timeout <= 0 {
			return nil, false, nil
		}
		switch q.park(ctx, expiry) {
		case wakeCancelled:
			return nil, false, opError(KindInterrupted, "take chunk", ctx.Err())
		case wakeExpired:
			return nil, false, nil
		}
	}
}

// TakeBytes collects up to count bytes across as many chunks as needed,
// waiting at most timeout.
//
// With exact set, it returns the bytes only if all count of them arrived in
// time. Otherwise the bytes collected so far go back to the front of the
// queue in their original order and TakeBytes returns (nil, false), so an
// exact read never loses data and never comes back short.
//
// Without exact, it returns whatever was collected by the deadline, and
// (nil, false) only if that was nothing. Bytes of the last chunk that were
// not needed stay queued.
//
// A done ctx or a closed queue ends the wait early and is handled like an
// expired deadline.
func (q *Queue) TakeBytes(ctx context.Context, count int, exact bool, timeout time.Duration) ([]byte, bool) {
	if count <= 0 {
		return []byte{}, true
	}
	var expiry <-chan time.Time
	if timeout > 0 {
		t := q.clock.Timer(timeout)
		defer t.Stop()
		expiry = t.C
	}

	got := make([]byte, 0, count)
	for len(got) < count && !q.IsClosed() {
		q.rmu.Lock()
		if q.fill() {
			n := min(count-len(got), len(q.cur))
			got = append(got, q.cur[:n]...)
			q.cur = q.cur[n:]
			q.rmu.Unlock()
			continue
		}
		q.rmu.Unlock()
		if timeout <= 0 {
			break
		}
		if w := q.park(ctx, expiry); w == wakeCancelled || w == wakeExpired {
			break
		}
	}

	switch {
	case len(got) == count:
		return got, true
	case exact:
		if len(got) > 0 {
			q.pushBack(got)
		}
		return nil, false
	case len(got) == 0:
		return nil, false
	default:
		return got, true
	}
}
