package brightness

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satclock/satclock.go/pkg/display"
	"github.com/satclock/satclock.go/pkg/hw/sim"
)

func TestWindowAverage(t *testing.T) {
	testCases := []struct {
		name    string
		samples []uint16
		average uint16
	}{
		{"empty", nil, 0},
		{"partial window dilutes", []uint16{160}, 10},
		{"full window", fill(320, WindowSize), 320},
		{"truncated mean", []uint16{
			1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2,
		}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var w Window
			var sum uint32
			for _, s := range tc.samples {
				w.Add(s)
				sum += uint32(s)
			}
			if len(tc.samples) == WindowSize {
				require.Equal(t, uint16(sum/WindowSize), w.Average())
			}
			require.Equal(t, tc.average, w.Average())
		})
	}
}

func TestWindowEviction(t *testing.T) {
	var w Window

	// A large outlier stops contributing after exactly WindowSize
	// further samples.
	w.Add(1023)
	for i := 0; i < WindowSize-1; i++ {
		w.Add(100)
	}
	require.Equal(t, uint16((1023+15*100)/WindowSize), w.Average())

	w.Add(100)
	require.Equal(t, uint16(100), w.Average())

	for i := 0; i < 3*WindowSize; i++ {
		w.Add(7)
	}
	require.Equal(t, uint16(7), w.Average())
}

func fill(v uint16, n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestControllerScaling(t *testing.T) {
	bus := sim.NewBus()
	d := display.New(bus, &sync.Mutex{})
	c := NewController(d)

	// Saturate the window with full-scale light: 1023/64 = 15.
	for i := 0; i < WindowSize; i++ {
		require.NoError(t, c.OnSample(1023))
	}
	require.Equal(t, byte(15), c.Level())
	require.Equal(t, byte(15), bus.Reg(0x0A))

	// Darkness settles to level 0.
	for i := 0; i < WindowSize; i++ {
		require.NoError(t, c.OnSample(0))
	}
	require.Equal(t, byte(0), bus.Reg(0x0A))

	// Mid-scale: 512/64 = 8.
	for i := 0; i < WindowSize; i++ {
		require.NoError(t, c.OnSample(512))
	}
	require.Equal(t, byte(8), bus.Reg(0x0A))
}
