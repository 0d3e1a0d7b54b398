package telemetry

import (
	"encoding/binary"
	"errors"

	"github.com/satclock/satclock.go/pkg/display"
	"github.com/satclock/satclock.go/pkg/l0/nmea"
)

// stateVersion guards the wire layout below.
const stateVersion = 1

// stateLen is the encoded size: version, status, six time fields,
// eight segment planes, intensity, drop counter.
const stateLen = 2 + 6 + display.NumSegments + 1 + 2

// ErrBadState indicates an undecodable state packet.
var ErrBadState = errors.New("telemetry: bad state packet")

// State is one snapshot of the clock: the last decode outcome, the
// displayed time, the raw segment planes, the current intensity level
// and the receive queue's drop counter.
type State struct {
	Status    nmea.Status
	Time      nmea.Time
	Planes    [display.NumSegments]byte
	Intensity byte
	Drops     uint16
}

// Encode packs the state into its fixed binary layout.
func (s State) Encode() []byte {
	out := make([]byte, stateLen)
	out[0] = stateVersion
	out[1] = byte(s.Status)
	fields := s.Time.Fields()
	copy(out[2:8], fields[:])
	copy(out[8:16], s.Planes[:])
	out[16] = s.Intensity
	binary.LittleEndian.PutUint16(out[17:], s.Drops)
	return out
}

// DecodeState unpacks a state packet.
func DecodeState(p []byte) (State, error) {
	if len(p) != stateLen || p[0] != stateVersion {
		return State{}, ErrBadState
	}
	s := State{
		Status: nmea.Status(p[1]),
		Time: nmea.Time{
			Hour:   p[2],
			Minute: p[3],
			Second: p[4],
			Day:    p[5],
			Month:  p[6],
			Year:   p[7],
		},
		Intensity: p[16],
		Drops:     binary.LittleEndian.Uint16(p[17:]),
	}
	copy(s.Planes[:], p[8:16])
	return s, nil
}
