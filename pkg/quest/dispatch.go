package quest

import (
	"time"
)

// Quest function ids, as issued by the interpreter.
const (
	FuncGetSection uint32 = iota
	FuncGetTime
	FuncGetClientCount
	FuncGetClass
	FuncGetGender
	FuncGetRace
	FuncGetJob
	FuncGetFloor
	FuncGetPosition
	FuncGetRandom
)

const (
	// AllSlots is the selector requesting every party slot at once.
	AllSlots uint32 = 0xFFFFFFFF

	// Absent is written for a slot with no occupant. Note the overload:
	// a legitimate computation can also produce this value, and the
	// interpreter cannot tell the two apart. Kept for compatibility.
	Absent uint32 = 0xFFFFFFFF

	// PartySlots is the number of slots in a lobby.
	PartySlots = 4

	// maxRegister is the highest addressable interpreter register.
	maxRegister = 255
)

// Client is the per-slot read view the handlers consume. Empty slots are
// represented by a nil Client.
type Client interface {
	SectionID() uint32
	ClassCode() uint32
	Area() uint32
	Position() (x, y, z float32)
}

// Party is the read view of the calling client's lobby.
type Party interface {
	// Slot returns the occupant of slot i (0-3), or nil.
	Slot(i int) Client
	ClientCount() uint32
	// RandUint32 draws from the lobby's deterministic generator.
	RandUint32() uint32
}

// RegisterWriter delivers one register write-back to the calling client.
// Sends are fire-and-forget: delivery failure is the connection layer's
// problem and never changes a dispatch result.
type RegisterWriter interface {
	SyncRegister(reg, value uint32)
}

// handler is the validate-and-execute contract every quest function
// implements. A handler either rejects the frame with zero writes or
// performs exactly the declared number of writes and returns NoError.
type handler interface {
	name() string
	call(f Frame, p Party, w RegisterWriter) Result
}

// Dispatcher routes call frames to quest function handlers.
type Dispatcher struct {
	funcs map[uint32]handler
}

// NewDispatcher builds a dispatcher with the full function table.
func NewDispatcher() *Dispatcher {
	return newDispatcher(time.Now)
}

// newDispatcher lets tests pin the clock.
func newDispatcher(now func() time.Time) *Dispatcher {
	d := &Dispatcher{funcs: make(map[uint32]handler)}
	d.funcs[FuncGetSection] = slotQuery{
		fname: "section",
		width: 1,
		fetch: func(c Client) []uint32 { return []uint32{c.SectionID()} },
	}
	d.funcs[FuncGetTime] = timeFunc{now: now}
	d.funcs[FuncGetClientCount] = clientCountFunc{}
	d.funcs[FuncGetClass] = slotQuery{
		fname: "class",
		width: 1,
		fetch: func(c Client) []uint32 { return []uint32{c.ClassCode()} },
	}
	d.funcs[FuncGetGender] = slotQuery{
		fname: "gender",
		width: 1,
		fetch: func(c Client) []uint32 { return []uint32{genderOf(c.ClassCode())} },
	}
	d.funcs[FuncGetRace] = slotQuery{
		fname: "race",
		width: 1,
		fetch: func(c Client) []uint32 { return []uint32{raceOf(c.ClassCode())} },
	}
	d.funcs[FuncGetJob] = slotQuery{
		fname: "job",
		width: 1,
		fetch: func(c Client) []uint32 { return []uint32{jobOf(c.ClassCode())} },
	}
	d.funcs[FuncGetFloor] = slotQuery{
		fname: "floor",
		width: 1,
		fetch: func(c Client) []uint32 { return []uint32{c.Area()} },
	}
	d.funcs[FuncGetPosition] = slotQuery{
		fname: "position",
		width: 3,
		fetch: func(c Client) []uint32 {
			x, y, z := c.Position()
			return []uint32{truncCoord(x), truncCoord(y), truncCoord(z)}
		},
	}
	d.funcs[FuncGetRandom] = randomFunc{}
	return d
}

// Dispatch validates the frame against the requested function and, on
// success, performs the register write-backs. Rejection is atomic: a
// non-NoError result means nothing was written.
func (d *Dispatcher) Dispatch(f Frame, p Party, w RegisterWriter) Result {
	if len(f) < 3 {
		return InvalidFunc
	}
	h, ok := d.funcs[f.FuncID()]
	if !ok {
		return InvalidFunc
	}
	return h.call(f, p, w)
}

// FunctionName returns a short name for a function id, for logging and
// metrics labels.
func (d *Dispatcher) FunctionName(id uint32) string {
	if h, ok := d.funcs[id]; ok {
		return h.name()
	}
	return "invalid"
}

// truncCoord truncates a world coordinate to an integer register value.
// Negative coordinates wrap exactly as the interpreter expects.
func truncCoord(v float32) uint32 {
	return uint32(int32(v))
}

// slotQuery is the shared shape of every per-slot query: one argument (a
// slot selector or AllSlots), and either one register per value in
// single-target mode or four ascending base registers in broadcast mode.
// Empty slots yield Absent instead of an error.
type slotQuery struct {
	fname string
	width int // registers written per occupied slot
	fetch func(c Client) []uint32
}

func (q slotQuery) name() string { return q.fname }

func (q slotQuery) call(f Frame, p Party, w RegisterWriter) Result {
	if f.ArgCount() != 1 {
		return BadArgCount
	}

	switch sel := f.Arg(0); {
	case sel == AllSlots:
		if f.RetCount() != PartySlots {
			return BadRetCount
		}
		for i := 0; i < PartySlots; i++ {
			if f.Reg(i) > maxRegister {
				return InvalidRegister
			}
		}
		for i := 0; i < PartySlots; i++ {
			q.write(w, p.Slot(i), f.Reg(i))
		}
		return NoError

	case sel < PartySlots:
		if f.RetCount() != 1 {
			return BadRetCount
		}
		if f.Reg(0) > maxRegister {
			return InvalidRegister
		}
		q.write(w, p.Slot(int(sel)), f.Reg(0))
		return NoError

	default:
		return InvalidArg
	}
}

// write emits one slot's values starting at the base register, or Absent
// fill when the slot is empty.
func (q slotQuery) write(w RegisterWriter, c Client, base uint32) {
	if c == nil {
		for i := 0; i < q.width; i++ {
			w.SyncRegister(base+uint32(i), Absent)
		}
		return
	}
	for i, v := range q.fetch(c) {
		w.SyncRegister(base+uint32(i), v)
	}
}

// timeFunc writes the current Unix timestamp. Arity 0/1.
type timeFunc struct {
	now func() time.Time
}

func (timeFunc) name() string { return "time" }

func (t timeFunc) call(f Frame, _ Party, w RegisterWriter) Result {
	if f.ArgCount() != 0 {
		return BadArgCount
	}
	if f.RetCount() != 1 {
		return BadRetCount
	}
	if f.Reg(0) > maxRegister {
		return InvalidRegister
	}
	w.SyncRegister(f.Reg(0), uint32(t.now().Unix()))
	return NoError
}

// clientCountFunc writes the occupant count of the caller's lobby.
// Arity 0/1.
type clientCountFunc struct{}

func (clientCountFunc) name() string { return "clientcount" }

func (clientCountFunc) call(f Frame, p Party, w RegisterWriter) Result {
	if f.ArgCount() != 0 {
		return BadArgCount
	}
	if f.RetCount() != 1 {
		return BadRetCount
	}
	if f.Reg(0) > maxRegister {
		return InvalidRegister
	}
	w.SyncRegister(f.Reg(0), p.ClientCount())
	return NoError
}

// randomFunc writes a uniform draw in [min, max] from the lobby's
// deterministic generator. Arity 2/1; min >= max is rejected.
type randomFunc struct{}

func (randomFunc) name() string { return "random" }

func (randomFunc) call(f Frame, p Party, w RegisterWriter) Result {
	if f.ArgCount() != 2 {
		return BadArgCount
	}
	if f.RetCount() != 1 {
		return BadRetCount
	}
	if f.Reg(0) > maxRegister {
		return InvalidRegister
	}

	min, max := f.Arg(0), f.Arg(1)
	if min >= max {
		return InvalidArg
	}

	span := uint64(max-min) + 1
	value := uint32(uint64(p.RandUint32())%span + uint64(min))
	w.SyncRegister(f.Reg(0), value)
	return NoError
}
