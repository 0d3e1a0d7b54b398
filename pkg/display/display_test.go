package display

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satclock/satclock.go/pkg/hw/sim"
)

type displayTestCtx struct {
	bus *sim.Bus
	d   *Display
}

func newDisplayTestCtx() *displayTestCtx {
	bus := sim.NewBus()
	return &displayTestCtx{bus: bus, d: New(bus, &sync.Mutex{})}
}

func (c *displayTestCtx) planeBytes() []byte {
	out := make([]byte, NumSegments)
	for i := range out {
		out[i] = c.bus.Reg(byte(i) + 1)
	}
	return out
}

func TestInitSequence(t *testing.T) {
	c := newDisplayTestCtx()
	require.NoError(t, c.d.Init())

	log := c.bus.Log()
	require.Equal(t, [][2]byte{
		{0x09, 0x00}, // decode mode off
		{0x0B, 0x07}, // scan all 8 planes
		{0x0F, 0x00}, // test mode off
		{0x0C, 0x01}, // output enable, always last
	}, log)
}

func TestBCDFont(t *testing.T) {
	expect := []byte{0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F}
	for v, pattern := range expect {
		c := newDisplayTestCtx()
		c.d.SetBCD(1, byte(v))
		require.NoError(t, c.d.Flush())

		// Logical digit 1 maps to physical bit 0; plane i carries
		// bit i of the pattern.
		for i, b := range c.planeBytes() {
			if pattern&(1<<uint(i)) != 0 {
				require.Equal(t, byte(0x01), b, "value %d plane %d", v, i)
			} else {
				require.Equal(t, byte(0x00), b, "value %d plane %d", v, i)
			}
		}
	}
}

func TestDecimalPointOR(t *testing.T) {
	c := newDisplayTestCtx()
	c.d.SetBCD(1, DecimalPoint|7)
	require.NoError(t, c.d.Flush())

	planes := c.planeBytes()
	// Digit pattern for 7 is unchanged in planes 0..2, point plane on.
	for i := 0; i < 3; i++ {
		require.Equal(t, byte(0x01), planes[i])
	}
	for i := 3; i < 7; i++ {
		require.Equal(t, byte(0x00), planes[i])
	}
	require.Equal(t, byte(0x01), planes[7])
}

func TestDigitRemap(t *testing.T) {
	// One segment, all six digits: the lit bit follows the wiring
	// permutation, not the logical order.
	for logical := 1; logical <= NumDigits; logical++ {
		c := newDisplayTestCtx()
		c.d.SetDigit(logical, 0x01)
		require.NoError(t, c.d.Flush())
		require.Equal(t, byte(1)<<digitMap[logical-1], c.bus.Reg(1), "digit %d", logical)
	}
}

func TestSetDigitClearsStaleBits(t *testing.T) {
	c := newDisplayTestCtx()
	c.d.SetDigit(1, 0xFF)
	c.d.SetDigit(1, 0x01)
	require.NoError(t, c.d.Flush())

	planes := c.planeBytes()
	require.Equal(t, byte(0x01), planes[0])
	for i := 1; i < NumSegments; i++ {
		require.Equal(t, byte(0x00), planes[i], "plane %d", i)
	}
}

func TestOutOfRangeDigitIgnored(t *testing.T) {
	c := newDisplayTestCtx()
	c.d.SetDigit(0, 0xFF)
	c.d.SetDigit(NumDigits+1, 0xFF)
	require.NoError(t, c.d.Flush())
	require.Equal(t, make([]byte, NumSegments), c.planeBytes())
}

func TestClearFlush(t *testing.T) {
	c := newDisplayTestCtx()
	for i := 1; i <= NumDigits; i++ {
		c.d.SetBCD(i, 8)
	}
	require.NoError(t, c.d.Flush())
	c.d.Clear()
	require.NoError(t, c.d.Flush())
	require.Equal(t, make([]byte, NumSegments), c.planeBytes())
}

func TestShowNoSignalWalks(t *testing.T) {
	c := newDisplayTestCtx()
	seen := make([]byte, 0, NumDigits+1)
	for i := 0; i <= NumDigits; i++ {
		require.NoError(t, c.d.ShowNoSignal())
		// Only the decimal point plane may be lit.
		planes := c.planeBytes()
		for p := 0; p < 7; p++ {
			require.Equal(t, byte(0x00), planes[p])
		}
		seen = append(seen, planes[7])
	}
	// Each digit's point in wiring order, then wrap to the first.
	require.Equal(t, []byte{
		1 << 0, 1 << 4, 1 << 3, 1 << 1, 1 << 5, 1 << 2,
		1 << 0,
	}, seen)
}

func TestShowError(t *testing.T) {
	c := newDisplayTestCtx()
	require.NoError(t, c.d.ShowError(2))

	planes := c.d.Planes()
	// Recompute the expected plane image from the glyphs.
	var expect [NumSegments]byte
	set := func(digit int, pattern byte) {
		bit := byte(1) << digitMap[digit-1]
		for i := 0; i < NumSegments; i++ {
			if pattern&(1<<uint(i)) != 0 {
				expect[i] |= bit
			}
		}
	}
	set(1, font[SymE])
	set(2, segR)
	set(3, font[2])
	require.Equal(t, expect, planes)
}

func TestSetIntensityMasksTo4Bits(t *testing.T) {
	c := newDisplayTestCtx()
	require.NoError(t, c.d.SetIntensity(0xFF))
	require.Equal(t, byte(0x0F), c.bus.Reg(0x0A))
	require.NoError(t, c.d.SetIntensity(3))
	require.Equal(t, byte(0x03), c.bus.Reg(0x0A))
}

func TestSweepEndsBlank(t *testing.T) {
	c := newDisplayTestCtx()
	require.NoError(t, c.d.Sweep())
	require.Equal(t, make([]byte, NumSegments), c.planeBytes())
	// 8 intermediate flushes plus the final blank one.
	require.Len(t, c.bus.Log(), (NumSegments+1)*NumSegments)
}
