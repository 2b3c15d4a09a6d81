// Package quest answers fact queries from the client-side quest
// interpreter. Each query arrives as a fixed-layout call frame; the
// dispatcher validates it and writes results back into the interpreter's
// numbered registers through the caller's register writer.
//
// The dispatcher is a pure validating function: it never logs, never
// disconnects anyone, and a rejected call performs zero register writes.
// The packet layer decides what to do with a non-zero Result.
package quest

// Result is the outcome of a quest function call, returned to the packet
// layer.
type Result uint32

const (
	NoError Result = iota
	BadArgCount
	BadRetCount
	InvalidRegister
	InvalidArg
	InvalidFunc
)

// String returns a short name for the result code.
func (r Result) String() string {
	switch r {
	case NoError:
		return "no_error"
	case BadArgCount:
		return "bad_arg_count"
	case BadRetCount:
		return "bad_ret_count"
	case InvalidRegister:
		return "invalid_register"
	case InvalidArg:
		return "invalid_arg"
	case InvalidFunc:
		return "invalid_func"
	default:
		return "unknown"
	}
}
