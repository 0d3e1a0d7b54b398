// Package stream carries telemetry packets over a plain byte stream.
package stream

import (
	"encoding/binary"
	"io"
)

// ReadWriter implements telemetry.PacketReadWriter over an
// io.ReadWriter. Each packet is prefixed by a 4-byte little-endian
// length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := binary.Write(p, binary.LittleEndian, uint32(len(pkt))); err != nil {
		return err
	}
	_, err := p.Write(pkt)
	return err
}
