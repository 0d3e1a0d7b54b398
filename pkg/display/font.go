package display

// Segment patterns, bit 0 = a .. bit 6 = g, bit 7 = decimal point.

// DecimalPoint is ORed into a digit value to light its point.
const DecimalPoint = 0x80

// Sentinel codes accepted by SetBCD beyond 0..9.
const (
	SymMinus = 10
	SymE     = 11
	SymH     = 12
	SymL     = 13
	SymP     = 14
	SymBlank = 15
)

// font maps a 4-bit value to its segment pattern, mirroring the
// driver chip's own code-B decode so raw plane writes look the same
// as hardware decode would have.
var font = [16]byte{
	0x3F, // 0
	0x06, // 1
	0x5B, // 2
	0x4F, // 3
	0x66, // 4
	0x6D, // 5
	0x7D, // 6
	0x07, // 7
	0x7F, // 8
	0x6F, // 9
	0x40, // -
	0x79, // E
	0x76, // H
	0x38, // L
	0x73, // P
	0x00, // blank
}

// segR is the lowercase r used in the error pattern.
const segR = 0x50
