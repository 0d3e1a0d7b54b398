// Package ubx implements the binary configuration protocol spoken to
// the GPS receiver: sync-header framing, the streaming Fletcher
// checksum, and the startup configuration messages.
package ubx

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/satclock/satclock.go/pkg/hw"
)

// Frame sync bytes. Every message starts with these and they are
// excluded from the checksum.
const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// Message classes and ids used by the clock.
const (
	ClassCFG = 0x06
	ClassACK = 0x05

	IDCfgMsg  = 0x01 // CFG-MSG message rate
	IDCfgNav5 = 0x24 // CFG-NAV5 navigation engine settings
	IDCfgTP5  = 0x31 // CFG-TP5 time pulse

	IDAckNak = 0x00
	IDAckAck = 0x01
)

// headerLen is the frame header size; a frame is headerLen + payload
// + 2 checksum bytes.
const headerLen = 6

// Encode builds a complete frame for a message.
func Encode(class, id byte, payload []byte) []byte {
	buf := make([]byte, 0, headerLen+len(payload)+2)
	buf = append(buf, Sync1, Sync2, class, id,
		byte(len(payload)&0xFF), byte(len(payload)>>8))
	buf = append(buf, payload...)
	var ck Checksum
	ck.UpdateMany(buf[2:])
	a, b := ck.Sum()
	return append(buf, a, b)
}

// ByteReader is the receive side the encoder scans for
// acknowledgments. *ring.Queue satisfies it.
type ByteReader interface {
	Get(ctx context.Context) (byte, error)
}

// Encoder sends configuration frames over the serial connection to
// the GPS receiver and confirms them against the acknowledgment
// stream: a send is only successful once ACK-ACK for the message
// arrives.
type Encoder struct {
	Conn hw.ByteConn
	Recv ByteReader
	// AckTimeout bounds the wait for ACK/NAK per message.
	AckTimeout time.Duration
}

// DefaultAckTimeout is ample for a receiver replying at 9600 baud.
const DefaultAckTimeout = 2 * time.Second

// NewEncoder creates an Encoder.
func NewEncoder(conn hw.ByteConn, recv ByteReader) *Encoder {
	return &Encoder{Conn: conn, Recv: recv, AckTimeout: DefaultAckTimeout}
}

// Send transmits one frame byte-at-a-time without waiting for a
// reply. Each SendByte blocks until the transmit hardware accepts the
// byte, so serial back-pressure is honored here.
func (e *Encoder) Send(ctx context.Context, class, id byte, payload []byte) error {
	for _, b := range Encode(class, id, payload) {
		if err := e.Conn.SendByte(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// SendCfg transmits a configuration frame and waits for the matching
// ACK-ACK. A NAK or a timeout is returned as an error.
func (e *Encoder) SendCfg(ctx context.Context, class, id byte, payload []byte) error {
	if e.Recv == nil {
		return ErrNoRecv
	}
	if err := e.Send(ctx, class, id, payload); err != nil {
		return err
	}

	timeout := e.AckTimeout
	if timeout == 0 {
		timeout = DefaultAckTimeout
	}
	ackCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		frame, err := e.readFrame(ackCtx)
		if err != nil {
			return err
		}
		fClass, fID, fPayload := frame[2], frame[3], frame[headerLen:len(frame)-2]
		if fClass != ClassACK || len(fPayload) != 2 ||
			fPayload[0] != class || fPayload[1] != id {
			glog.V(4).Infof("skip frame %02x/%02x while waiting for ack", fClass, fID)
			continue
		}
		if fID == IDAckNak {
			return &NakError{Class: class, ID: id}
		}
		return nil
	}
}

// readFrame scans the receive stream for the next frame with a valid
// checksum. NMEA text interleaved with binary replies is skipped by
// the sync-byte hunt.
func (e *Encoder) readFrame(ctx context.Context) ([]byte, error) {
	for {
		b, err := e.Recv.Get(ctx)
		if err != nil {
			return nil, err
		}
		if b != Sync1 {
			continue
		}
		if b, err = e.Recv.Get(ctx); err != nil {
			return nil, err
		}
		if b != Sync2 {
			continue
		}

		frame := []byte{Sync1, Sync2}
		for i := 0; i < headerLen-2; i++ {
			if b, err = e.Recv.Get(ctx); err != nil {
				return nil, err
			}
			frame = append(frame, b)
		}
		length := int(frame[4]) | int(frame[5])<<8
		for i := 0; i < length+2; i++ {
			if b, err = e.Recv.Get(ctx); err != nil {
				return nil, err
			}
			frame = append(frame, b)
		}

		var ck Checksum
		ck.UpdateMany(frame[2 : len(frame)-2])
		a, bb := ck.Sum()
		if a != frame[len(frame)-2] || bb != frame[len(frame)-1] {
			glog.V(4).Info("drop frame with bad checksum")
			continue
		}
		return frame, nil
	}
}
