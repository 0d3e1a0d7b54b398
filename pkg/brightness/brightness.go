// Package brightness trims the display intensity from ambient light
// readings.
package brightness

import (
	"sync/atomic"

	"github.com/golang/glog"
)

// WindowSize is the number of samples averaged. At the sampler's
// cadence the window spans roughly one second of readings.
const WindowSize = 16

// Window is a fixed-size moving average over raw light readings. The
// running sum is maintained incrementally: the evicted slot is
// subtracted and the new sample added, never recomputed from scratch.
type Window struct {
	slots [WindowSize]uint16
	w     int
	sum   uint32
}

// Add folds one sample into the window.
func (a *Window) Add(sample uint16) {
	a.sum -= uint32(a.slots[a.w])
	a.sum += uint32(sample)
	a.slots[a.w] = sample
	a.w = (a.w + 1) % WindowSize
}

// Average returns the windowed mean, truncated.
func (a *Window) Average() uint16 {
	return uint16(a.sum / WindowSize)
}

// IntensitySink receives the scaled duty value. *display.Display
// satisfies it.
type IntensitySink interface {
	SetIntensity(level byte) error
}

// Controller converts sampler readings into intensity commands, one
// per completed conversion. It runs in the sampler event context; the
// sink is responsible for bus exclusion against display flushes.
type Controller struct {
	Sink IntensitySink

	window Window
	level  uint32 // last pushed level, readable from other contexts
}

// NewController creates a Controller.
func NewController(sink IntensitySink) *Controller {
	return &Controller{Sink: sink}
}

// OnSample integrates one 10-bit reading and pushes the new level.
func (c *Controller) OnSample(raw uint16) error {
	c.window.Add(raw)
	// 1024 ADC counts map onto the driver's 16 intensity steps.
	level := byte(c.window.Average() / 64)
	atomic.StoreUint32(&c.level, uint32(level))
	if err := c.Sink.SetIntensity(level); err != nil {
		return err
	}
	glog.V(4).Infof("brightness sample %d -> level %d", raw, level)
	return nil
}

// Level reports the last pushed intensity. Safe from any goroutine.
func (c *Controller) Level() byte {
	return byte(atomic.LoadUint32(&c.level))
}
