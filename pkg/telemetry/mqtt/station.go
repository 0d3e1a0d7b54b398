package mqtt

import (
	"strconv"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// topics under clock/<id>/
const (
	TopicState = "state"
	TopicGPS   = "gps"
	TopicLight = "light"
)

// ClockID derives a stable identifier for this clock.
func ClockID() string {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	return id
}

// Station binds one clock to the broker: it publishes state and feeds
// inbound GPS bytes and light readings into the hardware simulation.
type Station struct {
	Queue *Queue
	ID    string
}

// NewStation creates a station, deriving the ID from the machine when
// id is empty.
func NewStation(q *Queue, id string) *Station {
	if id == "" {
		id = ClockID()
	}
	return &Station{Queue: q, ID: id}
}

func (s *Station) topic(suffix string) string {
	return "clock/" + s.ID + "/" + suffix
}

// WritePacket publishes an encoded state, implementing telemetry.PacketWriter.
func (s *Station) WritePacket(pkt []byte) error {
	return s.Queue.Pub(s.topic(TopicState), pkt)
}

// Announce publishes a retained presence message for discovery.
func (s *Station) Announce() error {
	return s.Queue.PubRetained(s.topic("meta"), []byte(`{"type":"clock"}`))
}

// HandleGPS subscribes to the GPS feed and passes raw NMEA bytes to fn.
func (s *Station) HandleGPS(fn func([]byte)) {
	s.Queue.Sub(s.topic(TopicGPS), func(topic string, payload []byte) {
		fn(payload)
	})
}

// HandleLight subscribes to the light feed. The payload is a decimal
// 10-bit reading.
func (s *Station) HandleLight(fn func(uint16)) {
	s.Queue.Sub(s.topic(TopicLight), func(topic string, payload []byte) {
		v, err := strconv.ParseUint(string(payload), 10, 16)
		if err != nil || v > 1023 {
			glog.Warningf("bad light reading %q", payload)
			return
		}
		fn(uint16(v))
	})
}
