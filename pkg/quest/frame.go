package quest

// Frame is the fixed-layout call frame the quest interpreter sends:
//
//	[0]   function id
//	[1]   declared argument count
//	[2]   declared output-register count
//	[3..] argument words, then output-register indices
//
// The packet layer extracts the word array from the wire; this package
// never sees the packet itself.
type Frame []uint32

// FuncID returns the requested function id.
func (f Frame) FuncID() uint32 {
	if len(f) == 0 {
		return 0
	}
	return f[0]
}

// ArgCount returns the declared argument count.
func (f Frame) ArgCount() uint32 {
	if len(f) < 2 {
		return 0
	}
	return f[1]
}

// RetCount returns the declared output-register count.
func (f Frame) RetCount() uint32 {
	if len(f) < 3 {
		return 0
	}
	return f[2]
}

// Arg returns argument word i. Out-of-range reads yield 0; handlers
// validate counts against their fixed arity before reading.
func (f Frame) Arg(i int) uint32 {
	idx := 3 + i
	if i < 0 || idx >= len(f) {
		return 0
	}
	return f[idx]
}

// Reg returns output-register index i, which sits after the argument
// words. Out-of-range reads yield an out-of-bounds register value so a
// truncated frame fails the 0-255 register check instead of aliasing
// register 0.
func (f Frame) Reg(i int) uint32 {
	idx := 3 + int(f.ArgCount()) + i
	if i < 0 || idx >= len(f) {
		return 1 << 16
	}
	return f[idx]
}
