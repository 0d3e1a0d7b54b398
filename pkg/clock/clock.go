// Package clock ties the receive path, the sentence decoder and the
// display together into the running clock.
package clock

import (
	"context"

	"github.com/golang/glog"

	"github.com/satclock/satclock.go/pkg/display"
	"github.com/satclock/satclock.go/pkg/l0/nmea"
)

// Error codes rendered as "E r <code>".
const (
	ErrCodeChecksum = 1
	ErrCodeFormat   = 2
	ErrCodeUnknown  = 3
)

// Listener observes every dispatched decode outcome. Used by the
// daemon to publish telemetry; nil is fine.
type Listener func(status nmea.Status, t nmea.Time)

// Clock consumes decoded sentences and keeps the display current.
type Clock struct {
	Decoder *nmea.Decoder
	Display *display.Display
	// TimezoneOffset is added to the decoded hour, wrapping into
	// [0,24). DST handling would adjust this value; the button input
	// for it is declared in hw but not consumed.
	TimezoneOffset int
	Listener       Listener

	last nmea.Time
}

// New creates a Clock.
func New(dec *nmea.Decoder, disp *display.Display, tzOffset int) *Clock {
	return &Clock{Decoder: dec, Display: disp, TimezoneOffset: tzOffset}
}

// Run implements framework.Runnable: the cooperative main loop. It
// only ever suspends inside the decoder's blocking queue read, and
// maps every decode outcome onto a display action. Display bus errors
// are logged, not fatal: the next update repaints the full image.
func (c *Clock) Run(ctx context.Context) error {
	for {
		t, status, err := c.Decoder.ReadTime(ctx)
		if err != nil {
			return err
		}
		c.dispatch(status, t)
	}
}

func (c *Clock) dispatch(status nmea.Status, t nmea.Time) {
	var err error
	switch status {
	case nmea.StatusSuccess:
		c.applyTimezone(&t)
		c.last = t
		err = c.showTime(t)
	case nmea.StatusNoMatch:
		// Partial and unrelated sentences leave the display alone.
	case nmea.StatusNoSignal:
		err = c.Display.ShowNoSignal()
	case nmea.StatusInvalidChecksum:
		err = c.Display.ShowError(ErrCodeChecksum)
	case nmea.StatusBadFormat:
		err = c.Display.ShowError(ErrCodeFormat)
	default:
		err = c.Display.ShowError(ErrCodeUnknown)
	}
	if err != nil {
		glog.Errorf("display update: %v", err)
	}
	if c.Listener != nil {
		c.Listener(status, t)
	}
}

// applyTimezone shifts the decoded hour in place.
func (c *Clock) applyTimezone(t *nmea.Time) {
	h := int(t.Hour) + c.TimezoneOffset
	for h > 23 {
		h -= 24
	}
	for h < 0 {
		h += 24
	}
	t.Hour = uint8(h)
}

// showTime renders hh mm ss onto the six digits: the first three
// time fields by position, split into tens and ones.
func (c *Clock) showTime(t nmea.Time) error {
	fields := t.Fields()
	digit := 1
	for i := 0; i < 3; i++ {
		v := fields[i]
		c.Display.SetBCD(digit, v/10)
		digit++
		c.Display.SetBCD(digit, v%10)
		digit++
	}
	return c.Display.Flush()
}

// Last returns the most recent displayed time.
func (c *Clock) Last() nmea.Time {
	return c.last
}
