// Package nmea decodes receiver sentences into a time of day.
//
// Only the RMC sentence is examined: the clock runs the receiver in
// stationary mode and prunes everything else at the source, so one
// sentence per second carrying time, date and fix status is the whole
// inbound protocol.
package nmea

import (
	"bytes"
	"context"
)

// Status classifies the outcome of one sentence read. The main loop
// maps these onto display actions; they never propagate as errors.
type Status int

const (
	// StatusSuccess means a fresh time was decoded.
	StatusSuccess Status = iota
	// StatusNoMatch means a well-formed sentence the clock ignores.
	StatusNoMatch
	// StatusNoSignal means the receiver has no fix yet.
	StatusNoSignal
	// StatusInvalidChecksum means the sentence failed its integrity
	// check.
	StatusInvalidChecksum
	// StatusBadFormat means the byte stream is not sentence-shaped,
	// e.g. the serial line idles low with the receiver unplugged.
	StatusBadFormat
	// StatusUnknown is kept for dispatch completeness; the decoder
	// itself does not produce it.
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNoMatch:
		return "no-match"
	case StatusNoSignal:
		return "no-signal"
	case StatusInvalidChecksum:
		return "invalid-checksum"
	case StatusBadFormat:
		return "bad-format"
	}
	return "unknown"
}

// Time is a decoded GPS time value: six small unsigned fields, hour
// first. The display layer addresses the first three by position.
type Time struct {
	Hour   uint8
	Minute uint8
	Second uint8
	Day    uint8
	Month  uint8
	Year   uint8 // two-digit year
}

// Fields exposes the value as a flat array addressed by position.
func (t Time) Fields() [6]uint8 {
	return [6]uint8{t.Hour, t.Minute, t.Second, t.Day, t.Month, t.Year}
}

// ByteReader is the blocking byte source, satisfied by *ring.Queue.
type ByteReader interface {
	Get(ctx context.Context) (byte, error)
}

// maxSentence is the NMEA 0183 sentence length cap including "$" and
// CRLF.
const maxSentence = 82

// Decoder assembles sentences from the byte queue and extracts the
// time from RMC.
type Decoder struct {
	Src ByteReader

	line []byte
}

// NewDecoder creates a Decoder.
func NewDecoder(src ByteReader) *Decoder {
	return &Decoder{Src: src, line: make([]byte, 0, maxSentence)}
}

// ReadTime blocks until one complete sentence arrives and classifies
// it. The returned error is only ever a transport/context error; all
// decode failures come back as a Status.
func (d *Decoder) ReadTime(ctx context.Context) (Time, Status, error) {
	line, err := d.readLine(ctx)
	if err != nil {
		return Time{}, StatusBadFormat, err
	}
	t, status := decodeSentence(line)
	return t, status, nil
}

// readLine collects bytes up to a LF, dropping CR. An overlong line
// is truncated and classified by decodeSentence.
func (d *Decoder) readLine(ctx context.Context) ([]byte, error) {
	d.line = d.line[:0]
	for {
		b, err := d.Src.Get(ctx)
		if err != nil {
			return nil, err
		}
		switch b {
		case '\n':
			return d.line, nil
		case '\r':
		default:
			if len(d.line) < maxSentence {
				d.line = append(d.line, b)
			}
		}
	}
}

func decodeSentence(line []byte) (Time, Status) {
	if len(line) == 0 {
		return Time{}, StatusNoMatch
	}
	if line[0] != '$' || !printable(line) {
		return Time{}, StatusBadFormat
	}

	body := line[1:]
	star := bytes.IndexByte(body, '*')
	if star < 0 || len(body)-star != 3 {
		return Time{}, StatusBadFormat
	}
	var sum byte
	for _, b := range body[:star] {
		sum ^= b
	}
	want, ok := hexByte(body[star+1], body[star+2])
	if !ok {
		return Time{}, StatusBadFormat
	}
	if sum != want {
		return Time{}, StatusInvalidChecksum
	}

	fields := bytes.Split(body[:star], []byte{','})
	talker := fields[0]
	if len(talker) != 5 || !bytes.Equal(talker[2:], []byte("RMC")) {
		return Time{}, StatusNoMatch
	}
	// $xxRMC,hhmmss.sss,A,lat,N,lon,E,spd,cog,ddmmyy,...
	if len(fields) < 10 {
		return Time{}, StatusBadFormat
	}
	if len(fields[2]) != 1 || fields[2][0] != 'A' {
		return Time{}, StatusNoSignal
	}

	var t Time
	if !decodePair(fields[1], 0, &t.Hour) ||
		!decodePair(fields[1], 2, &t.Minute) ||
		!decodePair(fields[1], 4, &t.Second) {
		return Time{}, StatusBadFormat
	}
	if !decodePair(fields[9], 0, &t.Day) ||
		!decodePair(fields[9], 2, &t.Month) ||
		!decodePair(fields[9], 4, &t.Year) {
		return Time{}, StatusBadFormat
	}
	return t, StatusSuccess
}

// decodePair reads two decimal digits at offset i.
func decodePair(f []byte, i int, out *uint8) bool {
	if len(f) < i+2 {
		return false
	}
	hi, lo := f[i], f[i+1]
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return false
	}
	*out = (hi-'0')*10 + (lo - '0')
	return true
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)
	return h<<4 | l, ok1 && ok2
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

func printable(line []byte) bool {
	for _, b := range line {
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}
