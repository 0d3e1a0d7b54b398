package telemetry

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/satclock/satclock.go/pkg/brightness"
	"github.com/satclock/satclock.go/pkg/display"
	"github.com/satclock/satclock.go/pkg/l0/nmea"
	"github.com/satclock/satclock.go/pkg/l0/ring"
)

// Reporter snapshots the clock on every decode outcome and publishes
// the latest state when its controller runs. Observe matches the
// clock.Listener signature; install it there.
type Reporter struct {
	Display    *display.Display
	Brightness *brightness.Controller
	Queue      *ring.Queue
	Sink       PacketWriter

	lock  sync.Mutex
	state State
	dirty bool
}

// NewReporter creates a Reporter.
func NewReporter(sink PacketWriter) *Reporter {
	return &Reporter{Sink: sink}
}

// Observe records one dispatched decode outcome. Called from the
// clock loop right after the display settles, which is the only safe
// point to copy the plane buffer.
func (r *Reporter) Observe(status nmea.Status, t nmea.Time) {
	r.lock.Lock()
	r.state.Status = status
	if status == nmea.StatusSuccess {
		r.state.Time = t
	}
	if r.Display != nil {
		r.state.Planes = r.Display.Planes()
	}
	r.dirty = true
	r.lock.Unlock()
}

// Control implements framework.Controller: publish the current state
// if anything changed since the last run.
func (r *Reporter) Control(ctx context.Context) error {
	r.lock.Lock()
	if !r.dirty {
		r.lock.Unlock()
		return nil
	}
	state := r.state
	r.dirty = false
	r.lock.Unlock()

	if r.Brightness != nil {
		state.Intensity = r.Brightness.Level()
	}
	if r.Queue != nil {
		if d := r.Queue.Drops(); d <= 0xFFFF {
			state.Drops = uint16(d)
		} else {
			state.Drops = 0xFFFF
		}
	}
	if err := r.Sink.WritePacket(state.Encode()); err != nil {
		return err
	}
	glog.V(2).Infof("state published: status=%d %02d:%02d:%02d",
		state.Status, state.Time.Hour, state.Time.Minute, state.Time.Second)
	return nil
}
