package clock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/satclock/satclock.go/pkg/brightness"
	"github.com/satclock/satclock.go/pkg/hw"
	"github.com/satclock/satclock.go/pkg/l0/ring"
)

// The board's three asynchronous sources (serial receive ready,
// sampler conversion complete, GPS time-pulse edge) become goroutines
// and a callback here. Each does the minimum, moving one datum to its
// owned resource; decoding and display composition stay in the
// cooperative loop.

// Receiver moves bytes from the serial connection into the queue.
type Receiver struct {
	Conn  hw.ByteConn
	Queue *ring.Queue
}

// Run implements framework.Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		b, err := r.Conn.RecvByte(ctx)
		if err != nil {
			return err
		}
		if !r.Queue.Put(b) {
			glog.V(4).Infof("rx queue full, byte dropped (%d so far)", r.Queue.Drops())
		}
	}
}

// SampleInterval matches the board's timer cadence: a conversion
// every 69 ms, so the 16-slot window spans roughly one second.
const SampleInterval = 69 * time.Millisecond

// Sampler triggers one light conversion per interval and feeds the
// brightness controller.
type Sampler struct {
	ADC      hw.ADC
	Ctl      *brightness.Controller
	Interval time.Duration
}

// Run implements framework.Runnable.
func (s *Sampler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval == 0 {
		interval = SampleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			raw, err := s.ADC.Sample()
			if err != nil {
				glog.Errorf("light sample: %v", err)
				continue
			}
			if err := s.Ctl.OnSample(raw); err != nil {
				glog.Errorf("intensity update: %v", err)
			}
		}
	}
}

// PulseCounter counts GPS time-pulse edges. The board handler is
// empty; the count is kept for diagnostics only.
type PulseCounter struct {
	n uint64
}

// Edge records one rising edge.
func (p *PulseCounter) Edge() {
	atomic.AddUint64(&p.n, 1)
}

// Count returns the number of edges seen.
func (p *PulseCounter) Count() uint64 {
	return atomic.LoadUint64(&p.n)
}
