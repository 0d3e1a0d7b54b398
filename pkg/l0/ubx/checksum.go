package ubx

// Checksum is the running two-byte additive checksum (8-bit Fletcher)
// covering a frame's class, id, length and payload bytes. The zero
// value is ready for use.
type Checksum struct {
	a, b byte
}

// Reset returns the accumulators to (0, 0).
func (c *Checksum) Reset() {
	c.a, c.b = 0, 0
}

// Update folds one byte into the checksum.
func (c *Checksum) Update(v byte) {
	c.a += v
	c.b += c.a
}

// UpdateMany folds a byte sequence in order.
func (c *Checksum) UpdateMany(p []byte) {
	for _, v := range p {
		c.Update(v)
	}
}

// Sum returns the current accumulator pair.
func (c *Checksum) Sum() (a, b byte) {
	return c.a, c.b
}
