package sim

import "sync"

// Bus records display driver commands. Data registers 1..8 and the
// control registers are kept as live state so tests can assert on the
// final register image instead of replaying the whole command log.
type Bus struct {
	lock sync.Mutex
	regs [16]byte
	log  [][2]byte
}

// NewBus creates a Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Cmd implements hw.CmdBus.
func (b *Bus) Cmd(addr, data byte) error {
	b.lock.Lock()
	if int(addr) < len(b.regs) {
		b.regs[addr] = data
	}
	b.log = append(b.log, [2]byte{addr, data})
	b.lock.Unlock()
	return nil
}

// Reg returns the last value written to a register.
func (b *Bus) Reg(addr byte) byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs[addr]
}

// Log returns a copy of the full command log.
func (b *Bus) Log() [][2]byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	out := make([][2]byte, len(b.log))
	copy(out, b.log)
	return out
}

// ResetLog clears the command log, keeping register state.
func (b *Bus) ResetLog() {
	b.lock.Lock()
	b.log = nil
	b.lock.Unlock()
}
