package ubx

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecv indicates the encoder has no receive side attached
	// and cannot wait for acknowledgments.
	ErrNoRecv = errors.New("ubx: no receive path")
)

// NakError reports a configuration message rejected by the receiver.
type NakError struct {
	Class byte
	ID    byte
}

// Error implements error.
func (e *NakError) Error() string {
	return fmt.Sprintf("ubx: NAK for message %02x/%02x", e.Class, e.ID)
}
