// Package display drives a MAX7219 wired to sink common-anode
// seven-segment digits.
//
// The wiring transposes the driver's registers: instead of one
// register per digit, each of the 8 data registers holds one segment
// plane whose bits select the physical digits that segment lights.
// Digit-level writes are buffered into the plane array and the whole
// image is retransmitted by Flush, since the driver has no per-digit
// addressing under this wiring.
package display

import (
	"github.com/satclock/satclock.go/pkg/hw"
)

// Display geometry.
const (
	NumDigits   = 6
	NumSegments = 8
)

// MAX7219 control registers. Data registers are 1..8.
const (
	regDecodeMode  = 0x09
	regIntensity   = 0x0A
	regScanLimit   = 0x0B
	regShutdown    = 0x0C
	regDisplayTest = 0x0F
)

// digitMap is the permutation from logical digit index to physical
// bit position for the rev 1.0 board wiring.
var digitMap = [NumDigits]byte{0, 4, 3, 1, 5, 2}

// Display buffers the transposed segment planes and writes them to
// the driver over the command bus. All bus access runs under the
// guard shared with the brightness path so multi-command sequences
// never interleave.
type Display struct {
	bus   hw.CmdBus
	guard hw.Guard

	planes [NumSegments]byte
	tick   int
}

// New creates a Display.
func New(bus hw.CmdBus, guard hw.Guard) *Display {
	return &Display{bus: bus, guard: guard}
}

// Init configures the driver for raw segment control. Output enable
// comes last so no intermediate state reaches the LEDs.
func (d *Display) Init() error {
	d.guard.Lock()
	defer d.guard.Unlock()

	// Hardware code-B decode is useless for transposed wiring.
	seq := [][2]byte{
		{regDecodeMode, 0x00},
		{regScanLimit, NumSegments - 1},
		{regDisplayTest, 0x00},
		{regShutdown, 0x01},
	}
	for _, c := range seq {
		if err := d.bus.Cmd(c[0], c[1]); err != nil {
			return err
		}
	}
	return nil
}

// SetDigit sets one logical digit (1..NumDigits) to a raw segment
// mask, updating the digit's bit in every plane. Out-of-range digits
// are ignored.
func (d *Display) SetDigit(digit int, segments byte) {
	if digit < 1 || digit > NumDigits {
		return
	}
	bit := byte(1) << digitMap[digit-1]
	for i := 0; i < NumSegments; i++ {
		if segments&1 != 0 {
			d.planes[i] |= bit
		} else {
			d.planes[i] &^= bit
		}
		segments >>= 1
	}
}

// SetBCD sets one logical digit from a 4-bit character code (0..9 or
// a Sym constant). Bit 0x80 of value lights the decimal point.
func (d *Display) SetBCD(digit int, value byte) {
	segments := font[value&0x0F]
	segments |= value & DecimalPoint
	d.SetDigit(digit, segments)
}

// Flush retransmits all 8 segment planes. The whole sequence holds
// the bus guard: an intensity write landing between two plane writes
// would corrupt the chip's register image.
func (d *Display) Flush() error {
	d.guard.Lock()
	defer d.guard.Unlock()
	for i := 0; i < NumSegments; i++ {
		if err := d.bus.Cmd(byte(i)+1, d.planes[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clear zeroes every plane without flushing.
func (d *Display) Clear() {
	for i := range d.planes {
		d.planes[i] = 0
	}
}

// ShowNoSignal lights only the decimal point of one digit, advancing
// to the next digit on every call. The walking dot shows the clock is
// alive while the receiver has no fix.
func (d *Display) ShowNoSignal() error {
	d.Clear()
	d.SetBCD(d.tick+1, DecimalPoint|SymBlank)
	d.tick++
	if d.tick == NumDigits {
		d.tick = 0
	}
	return d.Flush()
}

// ShowError renders "E r <code>".
func (d *Display) ShowError(code byte) error {
	d.Clear()
	d.SetBCD(1, SymE)
	d.SetDigit(2, segR)
	d.SetBCD(3, code)
	return d.Flush()
}

// SetIntensity sets the driver's global intensity register (0..15).
func (d *Display) SetIntensity(level byte) error {
	d.guard.Lock()
	defer d.guard.Unlock()
	return d.bus.Cmd(regIntensity, level&0x0F)
}

// Sweep runs the startup lamp test, lighting each segment plane in
// turn and leaving the display blank.
func (d *Display) Sweep() error {
	for i := 0; i < NumSegments; i++ {
		d.planes[i] = 0xFF
		if err := d.Flush(); err != nil {
			return err
		}
		d.planes[i] = 0x00
	}
	return d.Flush()
}

// Planes returns a copy of the buffered segment planes.
func (d *Display) Planes() [NumSegments]byte {
	return d.planes
}
