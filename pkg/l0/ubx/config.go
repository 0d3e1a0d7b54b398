package ubx

import (
	"context"
	"encoding/binary"

	"github.com/golang/glog"
)

// payload accumulates little-endian fields for a config message.
type payload []byte

func (p payload) u8(v uint8) payload { return append(p, v) }

func (p payload) u16(v uint16) payload {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(p, b[:]...)
}

func (p payload) u32(v uint32) payload {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(p, b[:]...)
}

func (p payload) i16(v int16) payload { return p.u16(uint16(v)) }
func (p payload) i32(v int32) payload { return p.u32(uint32(v)) }

// TimePulseConfig is the CFG-TP5 message body. Zero values match the
// receiver defaults the clock does not care about.
type TimePulseConfig struct {
	PulseIndex     uint8
	AntennaDelayNS int16
	RFGroupDelayNS int16
	FreqHz         uint32 // pulse frequency while unlocked
	FreqLockedHz   uint32 // pulse frequency once locked to GPS time
	PulseLenUS     uint32 // pulse length while unlocked
	PulseLenLocked uint32 // pulse length once locked
	UserDelayNS    int32
	Flags          uint32
}

// Payload encodes the 28-byte CFG-TP5 body.
func (c TimePulseConfig) Payload() []byte {
	return payload(make([]byte, 0, 28)).
		u8(c.PulseIndex).
		u8(0).  // reserved 0
		u16(0). // reserved 1
		i16(c.AntennaDelayNS).
		i16(c.RFGroupDelayNS).
		u32(c.FreqHz).
		u32(c.FreqLockedHz).
		u32(c.PulseLenUS).
		u32(c.PulseLenLocked).
		i32(c.UserDelayNS).
		u32(c.Flags)
}

// NavModelConfig is the CFG-NAV5 message body.
type NavModelConfig struct {
	Mask           uint16
	DynModel       uint8
	FixMode        uint8
	FixedAltCM     int32
	FixedAltVarCM2 uint32
	MinElevDeg     int8
	DRTimeoutS     uint8
	PosDoP         uint16 // in 0.1 units
	TimeDoP        uint16
	PosAccuracyM   uint16
	TimeAccuracyM  uint16
	StaticHoldCMS  uint8
	DGPSTimeoutS   uint8
}

// Payload encodes the 36-byte CFG-NAV5 body.
func (c NavModelConfig) Payload() []byte {
	return payload(make([]byte, 0, 36)).
		u16(c.Mask).
		u8(c.DynModel).
		u8(c.FixMode).
		i32(c.FixedAltCM).
		u32(c.FixedAltVarCM2).
		u8(uint8(c.MinElevDeg)).
		u8(c.DRTimeoutS).
		u16(c.PosDoP).
		u16(c.TimeDoP).
		u16(c.PosAccuracyM).
		u16(c.TimeAccuracyM).
		u8(c.StaticHoldCMS).
		u8(c.DGPSTimeoutS).
		u32(0). // reserved
		u32(0). // reserved
		u32(0)  // reserved
}

// DynModel values for NavModelConfig.
const (
	DynModelPortable   = 0
	DynModelStationary = 2
	DynModelPedestrian = 3
)

// StationaryTimePulse is the time-pulse setup for the clock: 1 Hz
// pulse once locked, 50 ns of antenna cable delay, all flag bits on.
func StationaryTimePulse() TimePulseConfig {
	return TimePulseConfig{
		PulseIndex:     0, // only one pulse output on the NEO-6M
		AntennaDelayNS: 50,
		FreqLockedHz:   1,
		PulseLenUS:     1000,
		PulseLenLocked: 10000,
		Flags:          0xFF,
	}
}

// StationaryNavModel is the navigation setup for a clock that never
// moves: stationary platform model, 2D or 3D fix, 20 degree elevation
// mask, loose DoP and accuracy masks.
func StationaryNavModel() NavModelConfig {
	return NavModelConfig{
		Mask:          0x003F,
		DynModel:      DynModelStationary,
		FixMode:       3,
		MinElevDeg:    20,
		DRTimeoutS:    180,
		PosDoP:        100,
		TimeDoP:       100,
		PosAccuracyM:  100,
		TimeAccuracyM: 100,
		DGPSTimeoutS:  60,
	}
}

// NMEA standard message ids under class 0xF0 for CFG-MSG.
const (
	nmeaClass = 0xF0
	NMEAGLL   = 0x01
	NMEAVTG   = 0x05
)

// DisabledNMEAMessages are the positioning sentences the clock never
// reads; rate zero stops the receiver from sending them.
var DisabledNMEAMessages = []byte{NMEAVTG, NMEAGLL}

// msgRatePayload encodes a CFG-MSG body setting one message's rate.
func msgRatePayload(class, id, rate byte) []byte {
	return []byte{class, id, rate}
}

// Configure pushes the clock's startup configuration to the receiver:
// time pulse, stationary navigation mode, and NMEA message pruning.
// Each message is confirmed via ACK before the next is sent.
func Configure(ctx context.Context, enc *Encoder) error {
	glog.Info("configuring time pulse")
	if err := enc.SendCfg(ctx, ClassCFG, IDCfgTP5, StationaryTimePulse().Payload()); err != nil {
		return err
	}

	glog.Info("configuring stationary navigation model")
	if err := enc.SendCfg(ctx, ClassCFG, IDCfgNav5, StationaryNavModel().Payload()); err != nil {
		return err
	}

	for _, id := range DisabledNMEAMessages {
		glog.V(2).Infof("disabling NMEA message f0/%02x", id)
		if err := enc.SendCfg(ctx, ClassCFG, IDCfgMsg, msgRatePayload(nmeaClass, id, 0)); err != nil {
			return err
		}
	}
	return nil
}
