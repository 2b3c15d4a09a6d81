package script

import (
	"testing"
)

type mockHost struct {
	name    string
	clients int
	blocks  int
}

func (h *mockHost) ShipName() string { return h.name }
func (h *mockHost) ClientCount() int { return h.clients }
func (h *mockHost) BlockCount() int  { return h.blocks }

type mockClient struct {
	gc      uint32
	name    string
	class   uint32
	section uint32
	area    uint32
	x, y, z float32
}

func (c *mockClient) GuildCard() uint32           { return c.gc }
func (c *mockClient) Name() string                { return c.name }
func (c *mockClient) ClassCode() uint32           { return c.class }
func (c *mockClient) SectionID() uint32           { return c.section }
func (c *mockClient) Area() uint32                { return c.area }
func (c *mockClient) Position() (x, y, z float32) { return c.x, c.y, c.z }

type mockLobby struct {
	id    uint32
	name  string
	count int
}

func (l *mockLobby) ID() uint32       { return l.id }
func (l *mockLobby) Name() string     { return l.name }
func (l *mockLobby) ClientCount() int { return l.count }

type mockStorage struct {
	data map[string]string
	err  error
}

func (m *mockStorage) Get(key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockStorage) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *mockStorage) Delete(key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

type mockQuerier struct {
	lastQuery string
	result    string
}

func (m *mockQuerier) Query(query, rowDelim, fieldDelim string) (string, error) {
	m.lastQuery = query
	return m.result, nil
}

func (m *mockQuerier) Escape(s string) string { return s }

// fullTestBridge initializes a bridge with every library installed.
func fullTestBridge(t *testing.T, host Host, st Storage, db Querier) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()
	b := New(dir)
	b.Init(host, st, db)
	if !b.Enabled() {
		t.Fatalf("bridge failed to initialize")
	}
	t.Cleanup(b.Close)
	return b, dir
}

func TestShipLibrary(t *testing.T) {
	host := &mockHost{name: "Aurora", clients: 12, blocks: 3}
	b, dir := fullTestBridge(t, host, nil, nil)
	writeScript(t, dir, "ship.lua", `
if ship.name() ~= "Aurora" then return -1 end
return ship.clients() + ship.blocks()
`)

	if err := b.Register(ActionStartup, "ship.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionStartup); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}

func TestClientLibrary(t *testing.T) {
	b, dir := fullTestBridge(t, &mockHost{}, nil, nil)
	writeScript(t, dir, "login.lua", `
local c = ...
if client.name(c) ~= "Rico" then return -1 end
if client.section(c) ~= 7 then return -2 end
local x, y, z = client.position(c)
if x ~= 1.5 then return -3 end
return client.guildcard(c)
`)

	if err := b.Register(ActionShipLogin, "login.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	c := &mockClient{gc: 12345, name: "Rico", section: 7, x: 1.5}
	if got := b.Invoke(ActionShipLogin, Handle(c)); got != 12345 {
		t.Fatalf("expected 12345, got %d", got)
	}
}

func TestLobbyLibrary(t *testing.T) {
	b, dir := fullTestBridge(t, &mockHost{}, nil, nil)
	writeScript(t, dir, "team.lua", `
local lb = ...
if lobby.name(lb) ~= "BLOCK1-1" then return -1 end
return lobby.id(lb) * 100 + lobby.count(lb)
`)

	if err := b.Register(ActionTeamCreate, "team.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	lb := &mockLobby{id: 4, name: "BLOCK1-1", count: 2}
	if got := b.Invoke(ActionTeamCreate, Handle(lb)); got != 402 {
		t.Fatalf("expected 402, got %d", got)
	}
}

func TestClientLibraryRejectsBadHandle(t *testing.T) {
	b, dir := fullTestBridge(t, &mockHost{}, nil, nil)
	writeScript(t, dir, "bad.lua", `
return client.guildcard("not a handle")
`)

	if err := b.Register(ActionShipLogout, "bad.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	// The argument error propagates as a handler failure, which degrades to 0.
	if got := b.Invoke(ActionShipLogout); got != 0 {
		t.Fatalf("expected 0 for bad handle, got %d", got)
	}
}

func TestStorageLibrary(t *testing.T) {
	st := &mockStorage{data: map[string]string{}}
	b, dir := fullTestBridge(t, &mockHost{}, st, nil)
	writeScript(t, dir, "store.lua", `
storage.set("kills", "41")
local v = storage.get("kills")
if v ~= "41" then return -1 end
if storage.get("absent") ~= nil then return -2 end
storage.del("kills")
if storage.get("kills") ~= nil then return -3 end
return 1
`)

	if err := b.Register(ActionEnemyKill, "store.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionEnemyKill); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestSQLLibrary(t *testing.T) {
	db := &mockQuerier{result: "a\tb\nc\td"}
	b, dir := fullTestBridge(t, &mockHost{}, nil, db)
	writeScript(t, dir, "sql.lua", `
local rows = sql.query("SELECT 1")
if rows ~= "a\tb\nc\td" then return -1 end
return 1
`)

	if err := b.Register(ActionStartup, "sql.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionStartup); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if db.lastQuery != "SELECT 1" {
		t.Fatalf("unexpected query: %q", db.lastQuery)
	}
}

func TestOptionalLibrariesAbsent(t *testing.T) {
	b, dir := fullTestBridge(t, &mockHost{}, nil, nil)
	writeScript(t, dir, "probe.lua", `
if storage ~= nil then return -1 end
if sql ~= nil then return -2 end
return 1
`)

	if err := b.Register(ActionStartup, "probe.lua"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := b.Invoke(ActionStartup); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}
