// Package ring provides the lock-free byte queue between the serial
// receive path and the sentence decoder.
package ring

import (
	"context"
	"sync/atomic"
	"time"
)

// Queue is a single-producer single-consumer circular byte buffer.
// Exactly one goroutine may call Put (the receive path) and exactly
// one may call Get (the decoder); under that discipline no lock is
// needed: each side publishes its index with an atomic store after
// the data write, and only reads the other side's index.
type Queue struct {
	buf   []byte
	mask  uint32
	w     uint32 // written only by the producer
	r     uint32 // written only by the consumer
	drops uint32
}

// DefaultCapacity fits several NMEA sentences between reads at
// 9600 baud.
const DefaultCapacity = 256

// New creates a Queue. Capacity must be a power of two so index
// wraparound is a mask.
func New(capacity int) *Queue {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two")
	}
	return &Queue{buf: make([]byte, capacity), mask: uint32(capacity - 1)}
}

// Put appends one byte. It never blocks: when the queue is full the
// new byte is dropped and Put returns false, so bytes already queued
// are never corrupted under the reader. Producer side only.
func (q *Queue) Put(b byte) bool {
	w := atomic.LoadUint32(&q.w)
	if w-atomic.LoadUint32(&q.r) > q.mask {
		atomic.AddUint32(&q.drops, 1)
		return false
	}
	q.buf[w&q.mask] = b
	atomic.StoreUint32(&q.w, w+1)
	return true
}

// Get removes and returns the oldest byte, blocking until one is
// available or ctx is done. Consumer side only.
func (q *Queue) Get(ctx context.Context) (byte, error) {
	for spins := 0; ; spins++ {
		r := atomic.LoadUint32(&q.r)
		if atomic.LoadUint32(&q.w) != r {
			b := q.buf[r&q.mask]
			atomic.StoreUint32(&q.r, r+1)
			return b, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		// Polled wait: stay hot briefly for low latency, then back
		// off to a millisecond tick (one byte time at 9600 baud).
		if spins > 100 {
			time.Sleep(time.Millisecond)
		}
	}
}

// Empty reports whether no bytes are queued. Safe from either side.
func (q *Queue) Empty() bool {
	return atomic.LoadUint32(&q.w) == atomic.LoadUint32(&q.r)
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	return int(atomic.LoadUint32(&q.w) - atomic.LoadUint32(&q.r))
}

// Drops returns the count of bytes dropped on overflow.
func (q *Queue) Drops() int {
	return int(atomic.LoadUint32(&q.drops))
}
