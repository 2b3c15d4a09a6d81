package script

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	lua "github.com/Shopify/go-lua"
)

// handlerTableKey names the Lua registry slot holding the table of
// compiled, not-yet-executed handler chunks.
const handlerTableKey = "shipserver.handlers"

// ErrNotRegistered is returned when unregistering an action that has no
// handler bound.
var ErrNotRegistered = errors.New("script: no handler registered for event")

// ErrInvalidAction is returned for out-of-range action values.
var ErrInvalidAction = errors.New("script: invalid action")

// Observer receives a notification after every handler invocation. The
// callback runs outside the bridge mutex; it must not block for long.
type Observer interface {
	HandlerInvoked(action Action, result int, err error)
}

// handlerSlot records where a compiled handler lives inside the runtime's
// handler table. Keys are never reused; releasing a slot nils out its
// table entry so the chunk can be collected.
type handlerSlot struct {
	key  int
	file string
}

// Bridge owns the embedded Lua runtime and the mapping from lifecycle
// events to handler scripts. All methods are safe for concurrent use;
// execution inside the runtime is effectively single-threaded because the
// mutex is held for the full duration of every call.
//
// Handlers must never call back into the bridge from within a script
// invocation on the same goroutine; that deadlocks.
type Bridge struct {
	mu       sync.Mutex
	state    *lua.State
	dir      string
	handlers map[Action]*handlerSlot
	nextKey  int
	observer Observer
}

// New creates a bridge that loads handler scripts relative to dir. The
// runtime itself is not created until Init.
func New(dir string) *Bridge {
	return &Bridge{
		dir:      dir,
		handlers: make(map[Action]*handlerSlot),
		nextKey:  1,
	}
}

// Init creates the runtime and installs the built-in script libraries.
// Scripting is a best-effort subsystem: calling Init twice logs a warning
// and changes nothing, and Init never reports failure to the caller. If
// anything goes wrong the bridge simply stays disabled.
//
// host backs the ship/client/lobby introspection libraries. storage and
// db are optional; when nil the corresponding library is not installed.
func (b *Bridge) Init(host Host, storage Storage, db Querier) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != nil {
		log.Printf("WARNING: attempt to initialize scripting twice")
		return
	}

	log.Printf("Initializing scripting support...")
	l := lua.NewState()
	if l == nil {
		log.Printf("WARNING: cannot initialize Lua, scripting disabled")
		return
	}
	lua.OpenLibraries(l)

	// Empty handler table, parked in the registry.
	l.NewTable()
	l.SetField(lua.RegistryIndex, handlerTableKey)

	b.installLibraries(l, host, storage, db)

	// Let scripts require shared modules from the scripts directory.
	if b.dir != "" {
		chunk := fmt.Sprintf(`package.path = package.path .. ";%s/modules/?.lua"`,
			filepath.ToSlash(b.dir))
		if err := lua.DoString(l, chunk); err != nil {
			log.Printf("WARNING: cannot extend script module path: %v", err)
		}
	}

	b.state = l
}

// Enabled reports whether the runtime was created successfully.
func (b *Bridge) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != nil
}

// SetObserver installs the invocation observer. Call before the bridge is
// shared between goroutines.
func (b *Bridge) SetObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = o
}

// Register binds a handler script to an action outside of the config
// document. Replacing an existing binding releases the superseded handler
// and logs a warning. On an uninitialized bridge this is a silent no-op.
func (b *Bridge) Register(action Action, filename string) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAction, action)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == nil {
		return nil
	}
	return b.registerLocked(action, filename)
}

// registerLocked compiles a script file into the handler table and binds
// it to action. Caller holds b.mu and has checked b.state.
func (b *Bridge) registerLocked(action Action, filename string) error {
	l := b.state
	top := l.Top()
	defer l.SetTop(top)

	path := b.scriptPath(filename)
	l.Field(lua.RegistryIndex, handlerTableKey)
	if err := lua.LoadFile(l, path, ""); err != nil {
		log.Printf("WARNING: could not load script %q: %v", path, err)
		return fmt.Errorf("script: load %s: %w", filename, err)
	}

	key := b.nextKey
	b.nextKey++
	l.RawSetInt(-2, key)

	if old, ok := b.handlers[action]; ok {
		log.Printf("WARNING: redefining script event %s (was %s)", action, old.file)
		b.releaseLocked(old)
	}
	b.handlers[action] = &handlerSlot{key: key, file: filename}
	log.Printf("Script for event %s added as id %d (%s)", action, key, filename)
	return nil
}

// releaseLocked nils out a handler slot in the runtime's handler table so
// the compiled chunk can be collected. Caller holds b.mu.
func (b *Bridge) releaseLocked(s *handlerSlot) {
	l := b.state
	top := l.Top()
	defer l.SetTop(top)

	l.Field(lua.RegistryIndex, handlerTableKey)
	l.PushNil()
	l.RawSetInt(-2, s.key)
}

// Unregister removes the handler bound to action. Unbinding an action with
// no handler is an error. On an uninitialized bridge this is a no-op.
func (b *Bridge) Unregister(action Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAction, action)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == nil {
		return nil
	}

	slot, ok := b.handlers[action]
	if !ok {
		log.Printf("WARNING: attempt to unregister script for event %s that does not exist", action)
		return fmt.Errorf("%w: %s", ErrNotRegistered, action)
	}
	b.releaseLocked(slot)
	delete(b.handlers, action)
	return nil
}

// Handlers returns a snapshot of the current action-to-file bindings.
func (b *Bridge) Handlers() map[Action]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[Action]string, len(b.handlers))
	for action, slot := range b.handlers {
		out[action] = slot.file
	}
	return out
}

// Invoke runs the handler bound to action with the given arguments and
// returns its integer result. With no handler bound (or the bridge
// disabled) it returns 0 without touching the runtime. A handler that
// raises an error or returns anything but an integer is logged and
// treated as 0, so a failing script degrades to no effect rather than
// an outage.
func (b *Bridge) Invoke(action Action, args ...Arg) int {
	rv, obs, err := b.invoke(action, args)
	if obs != nil {
		obs.HandlerInvoked(action, rv, err)
	}
	return rv
}

// InvokePacket runs the handler bound to action with an opaque session
// handle and a length-delimited packet payload. Used for the
// raw-data-observed events (UNK_*_PKT, SDATA).
func (b *Bridge) InvokePacket(action Action, session any, pkt []byte) int {
	return b.Invoke(action, Handle(session), Bytes(pkt))
}

// invoke does the locked portion of Invoke. It reports the observer (if a
// handler actually ran) so the notification can happen outside the mutex.
func (b *Bridge) invoke(action Action, args []Arg) (int, Observer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == nil {
		return 0, nil, nil
	}
	slot, ok := b.handlers[action]
	if !ok {
		return 0, nil, nil
	}

	l := b.state
	top := l.Top()
	defer l.SetTop(top)

	l.Field(lua.RegistryIndex, handlerTableKey)
	l.RawGetInt(-1, slot.key)

	if !pushArgs(l, args) {
		return 0, nil, nil
	}

	if err := l.ProtectedCall(len(args), 1, 0); err != nil {
		log.Printf("WARNING: error running script for event %s: %v", action, err)
		return 0, b.observer, err
	}

	rv, ok := l.ToInteger(-1)
	if !ok {
		err := fmt.Errorf("script: handler for event %s did not return an integer", action)
		log.Printf("WARNING: %v", err)
		return 0, b.observer, err
	}
	return rv, b.observer, nil
}

// Close releases every handler and drops the runtime. The bridge returns
// to its never-initialized state; Close is idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == nil {
		return
	}

	// Dropping the registry slot lets the whole handler table be
	// collected along with the state.
	b.state.PushNil()
	b.state.SetField(lua.RegistryIndex, handlerTableKey)

	b.state = nil
	b.handlers = make(map[Action]*handlerSlot)
	b.nextKey = 1
}

// handlerLive reports whether the handler table still holds a chunk at
// key. Test hook for replace/release accounting.
func (b *Bridge) handlerLive(key int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == nil {
		return false
	}
	l := b.state
	top := l.Top()
	defer l.SetTop(top)

	l.Field(lua.RegistryIndex, handlerTableKey)
	l.RawGetInt(-1, key)
	return !l.IsNil(-1)
}
