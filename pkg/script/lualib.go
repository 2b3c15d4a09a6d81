package script

import (
	lua "github.com/Shopify/go-lua"
)

// Host exposes ship-level facts to scripts through the ship library.
type Host interface {
	ShipName() string
	ClientCount() int
	BlockCount() int
}

// ClientInfo is the read-only view of a connected client that scripts see
// through the client library. Handles are passed to handlers as opaque
// arguments and handed back to these accessors.
type ClientInfo interface {
	GuildCard() uint32
	Name() string
	ClassCode() uint32
	SectionID() uint32
	Area() uint32
	Position() (x, y, z float32)
}

// LobbyInfo is the read-only view of a lobby exposed to scripts.
type LobbyInfo interface {
	ID() uint32
	Name() string
	ClientCount() int
}

// Storage is the persistent key/value store behind the storage library.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Querier runs guarded SQL for the sql library. Results come back as
// delimited text, one row per rowDelim.
type Querier interface {
	Query(query, rowDelim, fieldDelim string) (string, error)
	Escape(s string) string
}

// installLibraries registers the built-in introspection libraries into the
// runtime's global namespace. storage and db are optional.
func (b *Bridge) installLibraries(l *lua.State, host Host, storage Storage, db Querier) {
	if host != nil {
		lua.Require(l, "ship", shipOpener(host), true)
		l.Pop(1)
	}
	lua.Require(l, "client", openClientLib, true)
	l.Pop(1)
	lua.Require(l, "lobby", openLobbyLib, true)
	l.Pop(1)
	if storage != nil {
		lua.Require(l, "storage", storageOpener(storage), true)
		l.Pop(1)
	}
	if db != nil {
		lua.Require(l, "sql", sqlOpener(db), true)
		l.Pop(1)
	}
}

// shipOpener builds the ship library around a Host.
func shipOpener(host Host) lua.Function {
	return func(l *lua.State) int {
		lua.NewLibrary(l, []lua.RegistryFunction{
			{Name: "name", Function: func(l *lua.State) int {
				l.PushString(host.ShipName())
				return 1
			}},
			{Name: "clients", Function: func(l *lua.State) int {
				l.PushInteger(host.ClientCount())
				return 1
			}},
			{Name: "blocks", Function: func(l *lua.State) int {
				l.PushInteger(host.BlockCount())
				return 1
			}},
		})
		return 1
	}
}

// checkClient pulls a ClientInfo handle out of argument 1 or raises a Lua
// argument error.
func checkClient(l *lua.State) ClientInfo {
	if c, ok := l.ToUserData(1).(ClientInfo); ok && c != nil {
		return c
	}
	lua.ArgumentError(l, 1, "client handle expected")
	return nil
}

// checkLobby pulls a LobbyInfo handle out of argument 1 or raises a Lua
// argument error.
func checkLobby(l *lua.State) LobbyInfo {
	if lb, ok := l.ToUserData(1).(LobbyInfo); ok && lb != nil {
		return lb
	}
	lua.ArgumentError(l, 1, "lobby handle expected")
	return nil
}

// openClientLib registers the client accessor library. Every function
// takes a client handle as its first argument.
func openClientLib(l *lua.State) int {
	lua.NewLibrary(l, []lua.RegistryFunction{
		{Name: "guildcard", Function: func(l *lua.State) int {
			l.PushInteger(int(checkClient(l).GuildCard()))
			return 1
		}},
		{Name: "name", Function: func(l *lua.State) int {
			l.PushString(checkClient(l).Name())
			return 1
		}},
		{Name: "class", Function: func(l *lua.State) int {
			l.PushInteger(int(checkClient(l).ClassCode()))
			return 1
		}},
		{Name: "section", Function: func(l *lua.State) int {
			l.PushInteger(int(checkClient(l).SectionID()))
			return 1
		}},
		{Name: "area", Function: func(l *lua.State) int {
			l.PushInteger(int(checkClient(l).Area()))
			return 1
		}},
		{Name: "position", Function: func(l *lua.State) int {
			x, y, z := checkClient(l).Position()
			l.PushNumber(float64(x))
			l.PushNumber(float64(y))
			l.PushNumber(float64(z))
			return 3
		}},
	})
	return 1
}

// openLobbyLib registers the lobby accessor library.
func openLobbyLib(l *lua.State) int {
	lua.NewLibrary(l, []lua.RegistryFunction{
		{Name: "id", Function: func(l *lua.State) int {
			l.PushInteger(int(checkLobby(l).ID()))
			return 1
		}},
		{Name: "name", Function: func(l *lua.State) int {
			l.PushString(checkLobby(l).Name())
			return 1
		}},
		{Name: "count", Function: func(l *lua.State) int {
			l.PushInteger(checkLobby(l).ClientCount())
			return 1
		}},
	})
	return 1
}

// storageOpener builds the storage library around a key/value store so
// handlers can keep state across invocations and restarts.
func storageOpener(store Storage) lua.Function {
	return func(l *lua.State) int {
		lua.NewLibrary(l, []lua.RegistryFunction{
			{Name: "get", Function: func(l *lua.State) int {
				key := lua.CheckString(l, 1)
				value, ok, err := store.Get(key)
				if err != nil {
					lua.Errorf(l, "storage.get: %s", err.Error())
					return 0
				}
				if !ok {
					l.PushNil()
					return 1
				}
				l.PushString(value)
				return 1
			}},
			{Name: "set", Function: func(l *lua.State) int {
				key := lua.CheckString(l, 1)
				value := lua.CheckString(l, 2)
				if err := store.Set(key, value); err != nil {
					lua.Errorf(l, "storage.set: %s", err.Error())
				}
				return 0
			}},
			{Name: "del", Function: func(l *lua.State) int {
				key := lua.CheckString(l, 1)
				if err := store.Delete(key); err != nil {
					lua.Errorf(l, "storage.del: %s", err.Error())
				}
				return 0
			}},
		})
		return 1
	}
}

// sqlOpener builds the sql library around a Querier. Row and field
// delimiters default to newline and tab.
func sqlOpener(db Querier) lua.Function {
	return func(l *lua.State) int {
		lua.NewLibrary(l, []lua.RegistryFunction{
			{Name: "query", Function: func(l *lua.State) int {
				query := lua.CheckString(l, 1)
				rowDelim := lua.OptString(l, 2, "\n")
				fieldDelim := lua.OptString(l, 3, "\t")
				result, err := db.Query(query, rowDelim, fieldDelim)
				if err != nil {
					lua.Errorf(l, "sql.query: %s", err.Error())
					return 0
				}
				l.PushString(result)
				return 1
			}},
			{Name: "escape", Function: func(l *lua.State) int {
				l.PushString(db.Escape(lua.CheckString(l, 1)))
				return 1
			}},
		})
		return 1
	}
}
