// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
	"github.com/benbjohnson/clock"
)

// intakeCapacity is the bounded capacity of the lock-free intake ring.
// Writes that find the ring full spill into an ordered overflow list,
// so the queue as a whole is unbounded and writers never block.
const intakeCapacity = 64

// Queue is an unbounded FIFO of immutable byte chunks with one read side
// and one write side.
//
// Any number of goroutines may write; writes are serialized onto a
// single-producer single-consumer ring from lfq. The read side is meant
// for one reader at a time: it drains the ring into a reader-owned chunk
// list, which is what lets partial reads and push-back work without
// touching the producer side.
type Queue struct {
	serial Serial
	clock  clock.Clock

	// Producer side. wmu keeps the ring single-producer.
	wmu      sync.Mutex
	intake   lfq.SPSC[[]byte]
	overflow [][]byte
	spilled  atomix.Uint32

	ready  chan struct{}
	done   chan struct{}
	closed atomix.Uint32

	// Consumer side.
	rmu     sync.Mutex
	cur     []byte
	pending [][]byte

	r Reader
	w Writer
}

// NewQueue creates an open, empty queue timed by the wall clock.
func NewQueue() *Queue {
	return NewQueueWithClock(clock.New())
}

// NewQueueWithClock creates an open, empty queue whose timeouts are
// measured by clk.
func NewQueueWithClock(clk clock.Clock) *Queue {
	q := &Queue{
		serial: nextSerial(),
		clock:  clk,
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	q.intake.Init(intakeCapacity)
	q.r.q = q
	q.w.q = q
	return q
}

// Serial returns the process-unique serial assigned to q.
func (q *Queue) Serial() Serial {
	return q.serial
}

func (q *Queue) String() string {
	return fmt.Sprintf("queue#%d", q.serial)
}

// Reader returns the read side of q.
func (q *Queue) Reader() *Reader {
	return &q.r
}

// Writer returns the write side of q.
func (q *Queue) Writer() *Writer {
	return &q.w
}

// Close marks q closed and wakes any blocked reader, which then observes
// end of stream. Data not yet read is dropped. Close is idempotent and
// always returns nil.
func (q *Queue) Close() error {
	if q.closed.Add(1) != 1 {
		return nil
	}
	close(q.done)

	q.rmu.Lock()
	q.cur = nil
	q.pending = nil
	q.rmu.Unlock()

	q.wmu.Lock()
	q.overflow = nil
	q.spilled.Store(0)
	q.wmu.Unlock()
	return nil
}

// IsClosed reports whether Close has been called on q or either side.
func (q *Queue) IsClosed() bool {
	return q.closed.Load() != 0
}

// enqueue appends c as a single chunk. c must not be retained by the caller.
func (q *Queue) enqueue(c []byte) error {
	if q.IsClosed() {
		return ErrClosedChannel
	}
	if len(c) == 0 {
		return nil
	}
	q.wmu.Lock()
	if len(q.overflow) > 0 || q.intake.Enqueue(&c) != nil {
		q.overflow = append(q.overflow, c)
		q.spilled.Store(1)
	}
	q.wmu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// pull moves everything written so far into the reader-owned list.
// Caller holds rmu.
//
// While the overflow list is non-empty writers bypass the ring, so every
// chunk still in the ring precedes every spilled chunk. Draining the ring
// again under wmu before taking the overflow keeps that order.
func (q *Queue) pull() {
	q.drainIntake()
	if q.spilled.Load() == 0 {
		return
	}
	q.wmu.Lock()
	q.drainIntake()
	q.pending = append(q.pending, q.overflow...)
	q.overflow = nil
	q.spilled.Store(0)
	q.wmu.Unlock()
}

func (q *Queue) drainIntake() {
	for {
		c, err := q.intake.Dequeue()
		if err != nil {
			return
		}
		q.pending = append(q.pending, c)
	}
}

// fill makes cur hold the next unread bytes and reports whether there are
// any. Caller holds rmu.
func (q *Queue) fill() bool {
	if len(q.cur) > 0 {
		return true
	}
	q.pull()
	for len(q.pending) > 0 {
		q.cur = q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		if len(q.cur) > 0 {
			return true
		}
	}
	return false
}

// pushBack returns b to the front of the unread data, ahead of the
// remainder of the current chunk.
func (q *Queue) pushBack(b []byte) {
	q.rmu.Lock()
	if len(q.cur) > 0 {
		q.pending = append([][]byte{q.cur}, q.pending...)
	}
	q.cur = b
	q.rmu.Unlock()
}

// available returns the number of unread bytes. Caller holds rmu.
func (q *Queue) available() int {
	q.pull()
	n := len(q.cur)
	for _, c := range q.pending {
		n += len(c)
	}
	return n
}

type wake uint8

const (
	wakeReady wake = iota
	wakeClosed
	wakeCancelled
	wakeExpired
)

// park blocks until a writer signals, q closes, ctx is done, or expiry
// fires. A nil expiry never fires.
func (q *Queue) park(ctx context.Context, expiry <-chan time.Time) wake {
	select {
	case <-q.ready:
		return wakeReady
	case <-q.done:
		return wakeClosed
	case <-ctx.Done():
		return wakeCancelled
	case <-expiry:
		return wakeExpired
	}
}

// Reader is the read side of a Queue.
type Reader struct {
	q *Queue
}

// Queue returns the queue r reads from.
func (r *Reader) Queue() *Queue {
	return r.q
}

// ReadByte returns the next byte, blocking until one is written.
// It returns io.EOF once the queue is closed.
func (r *Reader) ReadByte() (byte, error) {
	return r.ReadByteContext(context.Background())
}

// ReadByteContext is ReadByte with cancellation: if ctx is done before a
// byte arrives it fails with an error of kind KindInterrupted.
func (r *Reader) ReadByteContext(ctx context.Context) (byte, error) {
	q := r.q
	for {
		if q.IsClosed() {
			return 0, io.EOF
		}
		q.rmu.Lock()
		if q.fill() {
			b := q.cur[0]
			q.cur = q.cur[1:]
			q.rmu.Unlock()
			return b, nil
		}
		q.rmu.Unlock()
		if q.park(ctx, nil) == wakeCancelled {
			return 0, opError(KindInterrupted, "read byte", ctx.Err())
		}
	}
}

// Read copies unread bytes into p, blocking until some are written.
// A single call never copies past the end of the chunk it started in.
// It returns io.EOF once the queue is closed.
func (r *Reader) Read(p []byte) (int, error) {
	return r.ReadContext(context.Background(), p)
}

// ReadContext is Read with cancellation: if ctx is done before data
// arrives it fails with an error of kind KindInterrupted.
func (r *Reader) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	q := r.q
	for {
		if q.IsClosed() {
			return 0, io.EOF
		}
		q.rmu.Lock()
		if q.fill() {
			n := copy(p, q.cur)
			q.cur = q.cur[n:]
			q.rmu.Unlock()
			return n, nil
		}
		q.rmu.Unlock()
		if q.park(ctx, nil) == wakeCancelled {
			return 0, opError(KindInterrupted, "read", ctx.Err())
		}
	}
}

// Available returns the number of bytes that can be read without
// blocking. It fails with ErrClosedChannel once the queue is closed.
func (r *Reader) Available() (int, error) {
	q := r.q
	if q.IsClosed() {
		return 0, ErrClosedChannel
	}
	q.rmu.Lock()
	n := q.available()
	q.rmu.Unlock()
	return n, nil
}

// Close closes the underlying queue.
func (r *Reader) Close() error {
	return r.q.Close()
}

// Writer is the write side of a Queue.
type Writer struct {
	q *Queue
}

// Queue returns the queue w writes to.
func (w *Writer) Queue() *Queue {
	return w.q
}

// Write enqueues a copy of p as one chunk. It never blocks.
// Empty writes enqueue nothing.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.q.enqueue(append([]byte(nil), p...)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteByte enqueues b as a one-byte chunk.
func (w *Writer) WriteByte(b byte) error {
	return w.q.enqueue([]byte{b})
}

// Close closes the underlying queue.
func (w *Writer) Close() error {
	return w.q.Close()
}
