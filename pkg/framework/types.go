// Package framework provides the runtime glue shared by the clock
// binaries: runnables, a runner that supervises them, and a periodic
// controller loop.
package framework

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Controller is one step of periodic work driven by a Loop.
type Controller interface {
	Control(ctx context.Context) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(context.Context) error

// Control implements Controller.
func (f ControlFunc) Control(ctx context.Context) error {
	return f(ctx)
}
