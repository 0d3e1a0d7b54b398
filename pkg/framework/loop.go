package framework

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Loop drives a fixed set of controllers at a regular interval, in
// registration order. Controller errors are logged and do not stop
// the loop.
type Loop struct {
	Interval time.Duration

	controllers []Controller
	wakeUpCh    chan struct{}
}

// NewLoop creates a Loop.
func NewLoop(interval time.Duration) *Loop {
	return &Loop{
		Interval: interval,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add registers controllers.
func (l *Loop) Add(ctls ...Controller) *Loop {
	l.controllers = append(l.controllers, ctls...)
	return l
}

// TriggerNext schedules an immediate iteration.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runIteration(ctx)
		case <-l.wakeUpCh:
			l.runIteration(ctx)
		}
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	for _, ctl := range l.controllers {
		if err := ctl.Control(ctx); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}
