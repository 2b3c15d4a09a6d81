package script

import (
	"log"
	"strings"

	lua "github.com/Shopify/go-lua"
)

// ArgKind tags the payload of an Arg. The set is closed: the marshaler
// rejects anything else before the handler is called.
type ArgKind int

const (
	// ArgNone is the zero value and is never a valid argument.
	ArgNone ArgKind = iota
	ArgInt
	ArgUint8
	ArgUint16
	ArgUint32
	ArgFloat
	ArgHandle
	ArgBytes
	ArgString
)

// Arg is one typed handler argument. Use the constructors below; a
// hand-built Arg with a bad Kind aborts the whole invocation.
type Arg struct {
	Kind   ArgKind
	Int    int64
	Float  float64
	Handle any
	Bytes  []byte
	Str    string
}

// Int builds a signed integer argument.
func Int(v int) Arg { return Arg{Kind: ArgInt, Int: int64(v)} }

// Uint8 builds an unsigned 8-bit argument; it is promoted to a Lua integer.
func Uint8(v uint8) Arg { return Arg{Kind: ArgUint8, Int: int64(v)} }

// Uint16 builds an unsigned 16-bit argument; it is promoted to a Lua integer.
func Uint16(v uint16) Arg { return Arg{Kind: ArgUint16, Int: int64(v)} }

// Uint32 builds an unsigned 32-bit argument; it is promoted to a Lua integer.
func Uint32(v uint32) Arg { return Arg{Kind: ArgUint32, Int: int64(v)} }

// Float builds a floating-point argument.
func Float(v float64) Arg { return Arg{Kind: ArgFloat, Float: v} }

// Handle builds an opaque, non-owning reference argument. The handler must
// know its provenance out of band; the bridge never inspects it.
func Handle(v any) Arg { return Arg{Kind: ArgHandle, Handle: v} }

// Bytes builds an explicit-length byte string argument. Embedded zero
// bytes are preserved.
func Bytes(b []byte) Arg { return Arg{Kind: ArgBytes, Bytes: b} }

// String builds a C-string argument: the value seen by the handler stops
// at the first NUL byte, and the terminator itself is not included.
func String(s string) Arg { return Arg{Kind: ArgString, Str: s} }

// pushArgs marshals args onto the runtime's call stack in order. On an
// unrecognized kind it pops everything it pushed and returns false; the
// caller must skip the call and return 0. This is a programmer-error
// path, not something a script can trigger.
func pushArgs(l *lua.State, args []Arg) bool {
	pushed := 0
	for _, a := range args {
		switch a.Kind {
		case ArgInt, ArgUint8, ArgUint16, ArgUint32:
			l.PushInteger(int(a.Int))
		case ArgFloat:
			l.PushNumber(a.Float)
		case ArgHandle:
			l.PushUserData(a.Handle)
		case ArgBytes:
			l.PushString(string(a.Bytes))
		case ArgString:
			s := a.Str
			if i := strings.IndexByte(s, 0); i >= 0 {
				s = s[:i]
			}
			l.PushString(s)
		default:
			log.Printf("WARNING: invalid script argument kind: %d", a.Kind)
			l.Pop(pushed)
			return false
		}
		pushed++
	}
	return true
}
