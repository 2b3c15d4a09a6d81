package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeScript drops a Lua handler into the test scripts directory.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("writing script %s: %v", name, err)
	}
}

// newTestBridge builds an initialized bridge over a temp scripts dir.
func newTestBridge(t *testing.T) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()
	b := New(dir)
	b.Init(nil, nil, nil)
	if !b.Enabled() {
		t.Fatalf("bridge failed to initialize")
	}
	t.Cleanup(b.Close)
	return b, dir
}

// mockObserver records handler invocation notifications.
type mockObserver struct {
	actions []Action
	results []int
	errs    []error
}

func (m *mockObserver) HandlerInvoked(action Action, result int, err error) {
	m.actions = append(m.actions, action)
	m.results = append(m.results, result)
	m.errs = append(m.errs, err)
}

func TestRegisterAndInvoke(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "login.lua", `return 42`)

	if err := b.Register(ActionShipLogin, "login.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionShipLogin); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestInvokePassesArguments(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "kill.lua", `
local hits, name = ...
if name == "booma" then return hits * 2 end
return -1
`)

	if err := b.Register(ActionEnemyKill, "kill.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionEnemyKill, Int(21), String("booma")); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestStringArgTruncatesAtNul(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "len.lua", `
local s = ...
return #s
`)
	if err := b.Register(ActionUnknownCommand, "len.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Text arguments stop at the first NUL; raw payloads keep every byte.
	if got := b.Invoke(ActionUnknownCommand, String("ab\x00cd")); got != 2 {
		t.Fatalf("text arg: expected length 2, got %d", got)
	}
	if got := b.Invoke(ActionUnknownCommand, Bytes([]byte("ab\x00cd"))); got != 5 {
		t.Fatalf("payload arg: expected length 5, got %d", got)
	}
}

func TestInvokeWithoutHandlerReturnsZero(t *testing.T) {
	b, _ := newTestBridge(t)
	obs := &mockObserver{}
	b.SetObserver(obs)

	if got := b.Invoke(ActionTeamCreate); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if len(obs.actions) != 0 {
		t.Fatalf("observer must not fire when no handler ran")
	}
}

func TestHandlerRuntimeErrorReturnsZero(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "boom.lua", `error("deliberate")`)
	obs := &mockObserver{}
	b.SetObserver(obs)

	if err := b.Register(ActionBlockLogin, "boom.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionBlockLogin); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if len(obs.errs) != 1 || obs.errs[0] == nil {
		t.Fatalf("observer should have seen the handler error")
	}
}

func TestNonIntegerReturnTreatedAsZero(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "str.lua", `return "nope"`)

	if err := b.Register(ActionBoxBreak, "str.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionBoxBreak); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestRegisterRejectsMissingFile(t *testing.T) {
	b, _ := newTestBridge(t)
	if err := b.Register(ActionStartup, "nope.lua"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if len(b.Handlers()) != 0 {
		t.Fatalf("failed registration must not bind anything")
	}
}

func TestRegisterInvalidAction(t *testing.T) {
	b, _ := newTestBridge(t)
	if err := b.Register(ActionInvalid, "x.lua"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if err := b.Register(ActionCount, "x.lua"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestReplaceReleasesOldHandler(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "one.lua", `return 1`)
	writeScript(t, dir, "two.lua", `return 2`)

	if err := b.Register(ActionTeamJoin, "one.lua"); err != nil {
		t.Fatalf("register one: %v", err)
	}
	oldKey := b.handlers[ActionTeamJoin].key
	if !b.handlerLive(oldKey) {
		t.Fatalf("first handler should be live")
	}

	if err := b.Register(ActionTeamJoin, "two.lua"); err != nil {
		t.Fatalf("register two: %v", err)
	}
	if b.handlerLive(oldKey) {
		t.Fatalf("replaced handler was not released")
	}
	if got := b.Invoke(ActionTeamJoin); got != 2 {
		t.Fatalf("expected replacement handler result 2, got %d", got)
	}
}

func TestUnregister(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "leave.lua", `return 7`)

	if err := b.Register(ActionTeamLeave, "leave.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	key := b.handlers[ActionTeamLeave].key

	if err := b.Unregister(ActionTeamLeave); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if b.handlerLive(key) {
		t.Fatalf("unregistered handler was not released")
	}
	if got := b.Invoke(ActionTeamLeave); got != 0 {
		t.Fatalf("expected 0 after unregister, got %d", got)
	}

	if err := b.Unregister(ActionTeamLeave); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestHandlersSnapshot(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "a.lua", `return 0`)
	writeScript(t, dir, "b.lua", `return 0`)

	b.Register(ActionShipLogin, "a.lua")
	b.Register(ActionShipLogout, "b.lua")

	snap := b.Handlers()
	if len(snap) != 2 || snap[ActionShipLogin] != "a.lua" || snap[ActionShipLogout] != "b.lua" {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
}

func TestInvokePacket(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "sdata.lua", `
local c, pkt = ...
return #pkt
`)
	if err := b.Register(ActionSData, "sdata.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.InvokePacket(ActionSData, struct{}{}, []byte{1, 2, 3, 0, 5}); got != 5 {
		t.Fatalf("expected packet length 5, got %d", got)
	}
}

func TestObserverSeesResult(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "ok.lua", `return 3`)
	obs := &mockObserver{}
	b.SetObserver(obs)

	b.Register(ActionEnemyHit, "ok.lua")
	b.Invoke(ActionEnemyHit)

	if len(obs.actions) != 1 || obs.actions[0] != ActionEnemyHit {
		t.Fatalf("observer actions: %v", obs.actions)
	}
	if obs.results[0] != 3 || obs.errs[0] != nil {
		t.Fatalf("observer saw result=%d err=%v", obs.results[0], obs.errs[0])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "x.lua", `return 1`)
	b.Register(ActionStartup, "x.lua")

	b.Close()
	b.Close()

	if b.Enabled() {
		t.Fatalf("bridge still enabled after close")
	}
	if got := b.Invoke(ActionStartup); got != 0 {
		t.Fatalf("expected 0 after close, got %d", got)
	}
	if len(b.Handlers()) != 0 {
		t.Fatalf("handlers survived close")
	}
}

func TestUninitializedBridgeIsInert(t *testing.T) {
	b := New(t.TempDir())

	if err := b.Register(ActionStartup, "x.lua"); err != nil {
		t.Fatalf("register on disabled bridge should be a no-op, got %v", err)
	}
	if got := b.Invoke(ActionStartup); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if err := b.Unregister(ActionStartup); err != nil {
		t.Fatalf("unregister on disabled bridge should be a no-op, got %v", err)
	}
}

func TestDoubleInitKeepsFirstRuntime(t *testing.T) {
	b, dir := newTestBridge(t)
	writeScript(t, dir, "x.lua", `return 9`)
	b.Register(ActionShutdown, "x.lua")

	// Second Init must not wipe the registered handler.
	b.Init(nil, nil, nil)
	if got := b.Invoke(ActionShutdown); got != 9 {
		t.Fatalf("expected 9 after double init, got %d", got)
	}
}
