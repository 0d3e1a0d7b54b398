// Package sim provides in-memory peripherals for running the clock
// core on a host.
package sim

import (
	"context"
	"sync"
)

// Serial is an in-memory serial connection. Received bytes are
// injected with Inject, transmitted bytes are collected and can be
// inspected or looped back as simulated receiver replies.
type Serial struct {
	lock   sync.Mutex
	rx     []byte
	rxCh   chan struct{}
	sent   []byte
	OnSend func(b byte) // optional tap on every transmitted byte
}

// NewSerial creates a Serial.
func NewSerial() *Serial {
	return &Serial{rxCh: make(chan struct{}, 1)}
}

// SendByte implements hw.ByteConn.
func (s *Serial) SendByte(ctx context.Context, b byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	s.sent = append(s.sent, b)
	tap := s.OnSend
	s.lock.Unlock()
	if tap != nil {
		tap(b)
	}
	return nil
}

// RecvByte implements hw.ByteConn.
func (s *Serial) RecvByte(ctx context.Context) (byte, error) {
	for {
		s.lock.Lock()
		if len(s.rx) > 0 {
			b := s.rx[0]
			s.rx = s.rx[1:]
			s.lock.Unlock()
			return b, nil
		}
		s.lock.Unlock()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-s.rxCh:
		}
	}
}

// Inject queues bytes on the receive side.
func (s *Serial) Inject(p []byte) {
	if len(p) == 0 {
		return
	}
	s.lock.Lock()
	s.rx = append(s.rx, p...)
	s.lock.Unlock()
	select {
	case s.rxCh <- struct{}{}:
	default:
	}
}

// Sent returns a copy of all transmitted bytes.
func (s *Serial) Sent() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

// ResetSent clears the transmit log.
func (s *Serial) ResetSent() {
	s.lock.Lock()
	s.sent = nil
	s.lock.Unlock()
}
