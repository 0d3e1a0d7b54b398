package ubx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/satclock/satclock.go/pkg/hw/sim"
	"github.com/satclock/satclock.go/pkg/l0/ring"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name    string
		class   byte
		id      byte
		payload []byte
	}{
		{"no payload", 0x06, 0x01, nil},
		{"short payload", 0x06, 0x01, []byte{0xF0, 0x05, 0x00}},
		{"time pulse payload", ClassCFG, IDCfgTP5, StationaryTimePulse().Payload()},
		{"nav model payload", ClassCFG, IDCfgNav5, StationaryNavModel().Payload()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame := Encode(tc.class, tc.id, tc.payload)
			require.Len(t, frame, 8+len(tc.payload))
			require.Equal(t, byte(Sync1), frame[0])
			require.Equal(t, byte(Sync2), frame[1])
			require.Equal(t, tc.class, frame[2])
			require.Equal(t, tc.id, frame[3])
			require.Equal(t, byte(len(tc.payload)&0xFF), frame[4])
			require.Equal(t, byte(len(tc.payload)>>8), frame[5])
			require.Equal(t, tc.payload, frame[6:len(frame)-2])

			// Replay the fold over the non-sync bytes.
			var ck Checksum
			ck.UpdateMany(frame[2 : len(frame)-2])
			a, b := ck.Sum()
			require.Equal(t, a, frame[len(frame)-2])
			require.Equal(t, b, frame[len(frame)-1])
		})
	}
}

func TestTimePulseFrameSize(t *testing.T) {
	// CFG-TP5 with the stationary setup: 28-byte payload, 36 bytes on
	// the wire.
	p := StationaryTimePulse().Payload()
	require.Len(t, p, 28)
	require.Len(t, Encode(ClassCFG, IDCfgTP5, p), 36)
}

func TestNavModelPayloadSize(t *testing.T) {
	require.Len(t, StationaryNavModel().Payload(), 36)
}

type encoderTestCtx struct {
	serial *sim.Serial
	queue  *ring.Queue
	enc    *Encoder
}

func newEncoderTestCtx() *encoderTestCtx {
	c := &encoderTestCtx{
		serial: sim.NewSerial(),
		queue:  ring.New(ring.DefaultCapacity),
	}
	c.enc = NewEncoder(c.serial, c.queue)
	c.enc.AckTimeout = 500 * time.Millisecond
	return c
}

func (c *encoderTestCtx) reply(frames ...[]byte) {
	for _, f := range frames {
		for _, b := range f {
			c.queue.Put(b)
		}
	}
}

func ackFrame(class, id byte) []byte {
	return Encode(ClassACK, IDAckAck, []byte{class, id})
}

func nakFrame(class, id byte) []byte {
	return Encode(ClassACK, IDAckNak, []byte{class, id})
}

func TestSendWritesWholeFrame(t *testing.T) {
	c := newEncoderTestCtx()
	payload := []byte{1, 2, 3}
	require.NoError(t, c.enc.Send(context.Background(), 0x06, 0x08, payload))
	require.Equal(t, Encode(0x06, 0x08, payload), c.serial.Sent())
}

func TestSendCfg(t *testing.T) {
	testCases := []struct {
		name    string
		replies [][]byte
		check   func(*testing.T, error)
	}{
		{
			name:    "acknowledged",
			replies: [][]byte{ackFrame(ClassCFG, IDCfgTP5)},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:    "rejected",
			replies: [][]byte{nakFrame(ClassCFG, IDCfgTP5)},
			check: func(t *testing.T, err error) {
				require.Equal(t, &NakError{Class: ClassCFG, ID: IDCfgTP5}, err)
			},
		},
		{
			name: "nmea noise before ack",
			replies: [][]byte{
				[]byte("$GPRMC,235959.00,A*XX\r\n"),
				ackFrame(ClassCFG, IDCfgTP5),
			},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "ack for another message is skipped",
			replies: [][]byte{
				ackFrame(ClassCFG, IDCfgNav5),
				ackFrame(ClassCFG, IDCfgTP5),
			},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "corrupt ack is dropped",
			replies: [][]byte{
				func() []byte {
					f := ackFrame(ClassCFG, IDCfgTP5)
					f[len(f)-1] ^= 0xFF
					return f
				}(),
				ackFrame(ClassCFG, IDCfgTP5),
			},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:    "timeout without ack",
			replies: nil,
			check: func(t *testing.T, err error) {
				require.Equal(t, context.DeadlineExceeded, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newEncoderTestCtx()
			c.reply(tc.replies...)
			err := c.enc.SendCfg(context.Background(), ClassCFG, IDCfgTP5,
				StationaryTimePulse().Payload())
			tc.check(t, err)
		})
	}
}

func TestSendCfgWithoutRecv(t *testing.T) {
	enc := &Encoder{Conn: sim.NewSerial()}
	err := enc.SendCfg(context.Background(), ClassCFG, IDCfgTP5, nil)
	require.Equal(t, ErrNoRecv, err)
}

func TestConfigure(t *testing.T) {
	c := newEncoderTestCtx()
	c.reply(
		ackFrame(ClassCFG, IDCfgTP5),
		ackFrame(ClassCFG, IDCfgNav5),
		ackFrame(ClassCFG, IDCfgMsg),
		ackFrame(ClassCFG, IDCfgMsg),
	)
	require.NoError(t, Configure(context.Background(), c.enc))

	// CFG-TP5 + CFG-NAV5 + one CFG-MSG rate update per pruned sentence.
	expect := 36 + (8 + 36) + len(DisabledNMEAMessages)*(8+3)
	require.Len(t, c.serial.Sent(), expect)
}
