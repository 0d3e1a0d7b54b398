// Package hw defines the hardware touchpoints of the clock core.
package hw

import "context"

// The clock core talks to three peripherals: an asynchronous
// serial port wired to the GPS receiver, a synchronous command bus
// wired to the display driver, and an ADC sampling the ambient light
// sensor. On the real board these are registers; here they are
// interfaces so the core runs against simulated hardware on a host.

// ByteConn is a blocking single-byte serial connection.
type ByteConn interface {
	// SendByte loads one byte into the transmit buffer after the
	// previous transmission completed. Blocks until the hardware
	// accepts the byte or ctx is done.
	SendByte(ctx context.Context, b byte) error
	// RecvByte blocks until one byte is received or ctx is done.
	RecvByte(ctx context.Context) (byte, error)
}

// CmdBus is a transmit-only command bus carrying (address, data)
// pairs, each framed by a chip-select assertion.
type CmdBus interface {
	Cmd(addr, data byte) error
}

// ADC performs one analog conversion per call.
type ADC interface {
	Sample() (uint16, error)
}

// Guard is the mutual-exclusion primitive protecting the display
// command bus. It stands in for the global interrupt disable/enable
// pair of the bare-metal build: the time-display flush sequence and
// the brightness intensity writes must not interleave.
type Guard interface {
	Lock()
	Unlock()
}

// Buttons reports the state of the timezone and DST inputs.
// Declared for board parity; not consumed by the core.
type Buttons interface {
	TimezonePressed() bool
	DSTPressed() bool
}
