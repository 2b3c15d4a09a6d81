// Package ship wires the scripting bridge, the quest dispatcher, and
// their supporting services (storage, SQL, events, admin API) into one
// running ship.
package ship

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/solward/shipserver/pkg/events"
	"github.com/solward/shipserver/pkg/lobby"
	"github.com/solward/shipserver/pkg/quest"
	"github.com/solward/shipserver/pkg/script"
	"github.com/solward/shipserver/pkg/scriptstore"
)

// Ship is the top-level server state.
type Ship struct {
	conf       *Conf
	bridge     *script.Bridge
	dispatcher *quest.Dispatcher
	bus        *events.Bus
	storage    *scriptstore.Store
	sqldb      *SQLStore
	metrics    *Metrics
	startTime  time.Time

	mu      sync.Mutex
	lobbies map[uint32]*lobby.Lobby
}

// New builds a ship from config: opens the script stores, initializes
// the scripting runtime, and loads the hook configuration. The STARTUP
// hook fires before New returns.
func New(conf *Conf) (*Ship, error) {
	s := &Ship{
		conf:       conf,
		dispatcher: quest.NewDispatcher(),
		bus:        events.NewBus(),
		startTime:  time.Now(),
		lobbies:    make(map[uint32]*lobby.Lobby),
	}

	if conf.StorageDB != "" {
		store, err := scriptstore.Open(conf.StorageDB)
		if err != nil {
			return nil, err
		}
		s.storage = store
	}

	if conf.SQLEnabled {
		db, err := OpenSQLStore(conf.SQLDatabase, conf.SQLQueryLimit, conf.SQLTimeout)
		if err != nil {
			s.closeStores()
			return nil, err
		}
		s.sqldb = db
	}

	s.bridge = script.New(conf.ScriptsDir)
	if conf.ScriptsEnabled {
		var storage script.Storage
		if s.storage != nil {
			storage = s.storage
		}
		var querier script.Querier
		if s.sqldb != nil {
			querier = s.sqldb
		}
		s.bridge.Init(s, storage, querier)
		s.bridge.SetObserver(s)

		if conf.EventList != "" {
			if err := s.bridge.LoadEventList(conf.EventList); err != nil {
				log.Printf("WARNING: hook configuration not loaded: %v", err)
			}
		}
	}

	s.bridge.Invoke(script.ActionStartup)
	return s, nil
}

// Conf returns the ship configuration.
func (s *Ship) Conf() *Conf { return s.conf }

// Bridge returns the scripting bridge.
func (s *Ship) Bridge() *script.Bridge { return s.bridge }

// Bus returns the ship's event bus.
func (s *Ship) Bus() *events.Bus { return s.bus }

// Storage returns the script key/value store, or nil when not configured.
func (s *Ship) Storage() *scriptstore.Store { return s.storage }

// SetMetrics attaches the Prometheus collectors. Optional; a nil metrics
// ship works fine.
func (s *Ship) SetMetrics(m *Metrics) { s.metrics = m }

// ShipName implements script.Host.
func (s *Ship) ShipName() string { return s.conf.ShipName }

// BlockCount implements script.Host.
func (s *Ship) BlockCount() int { return s.conf.Blocks }

// ClientCount implements script.Host: total occupants across lobbies.
func (s *Ship) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, lb := range s.lobbies {
		n += lb.ClientCount()
	}
	return n
}

// AddLobby registers a lobby with the ship.
func (s *Ship) AddLobby(lb *lobby.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[lb.ID()]; ok {
		return fmt.Errorf("lobby %d already registered", lb.ID())
	}
	s.lobbies[lb.ID()] = lb
	return nil
}

// RemoveLobby unregisters a lobby.
func (s *Ship) RemoveLobby(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

// Lobby returns a registered lobby, or nil.
func (s *Ship) Lobby(id uint32) *lobby.Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobbies[id]
}

// HandlerInvoked implements script.Observer: every bridge invocation
// lands here for metrics and the admin event feed.
func (s *Ship) HandlerInvoked(action script.Action, result int, err error) {
	if s.metrics != nil {
		s.metrics.HookCall(action.String(), err != nil)
	}
	ev := events.Event{
		Type:   events.EvHookInvoked,
		Action: action.String(),
		Result: result,
		Text:   fmt.Sprintf("hook %s returned %d", action, result),
	}
	if err != nil {
		ev.Type = events.EvHookError
		ev.Text = fmt.Sprintf("hook %s failed: %v", action, err)
	}
	s.bus.Emit(ev)
}

// QuestCall validates and executes one quest function frame from a
// client in the given lobby, recording the outcome.
func (s *Ship) QuestCall(frame quest.Frame, lb *lobby.Lobby, c *lobby.Client) quest.Result {
	res := s.dispatcher.Dispatch(frame, lobby.AsParty(lb), c)

	fname := s.dispatcher.FunctionName(frame.FuncID())
	if s.metrics != nil {
		s.metrics.QuestCall(fname, res.String())
	}

	ev := events.Event{
		Type:      events.EvQuestCall,
		Function:  fname,
		GuildCard: c.GuildCard(),
		Result:    int(res),
		Text:      fmt.Sprintf("quest %s by %d: %s", fname, c.GuildCard(), res),
	}
	if res != quest.NoError {
		ev.Type = events.EvQuestRejected
	}
	s.bus.Emit(ev)
	return res
}

// RegisterHook binds a handler script to an action and announces the
// change on the bus.
func (s *Ship) RegisterHook(action script.Action, file string) error {
	if err := s.bridge.Register(action, file); err != nil {
		return err
	}
	s.bus.Emit(events.Event{
		Type:   events.EvHookRegistered,
		Action: action.String(),
		File:   file,
		Text:   fmt.Sprintf("hook %s bound to %s", action, file),
	})
	return nil
}

// UnregisterHook removes the handler bound to an action and announces
// the change on the bus.
func (s *Ship) UnregisterHook(action script.Action) error {
	if err := s.bridge.Unregister(action); err != nil {
		return err
	}
	s.bus.Emit(events.Event{
		Type:   events.EvHookReleased,
		Action: action.String(),
		Text:   fmt.Sprintf("hook %s released", action),
	})
	return nil
}

// ReloadHooks reloads the hook configuration document. On failure the
// previous bindings stay in effect.
func (s *Ship) ReloadHooks() error {
	err := s.bridge.LoadEventList(s.conf.EventList)
	if s.metrics != nil {
		s.metrics.Reload(err == nil)
	}
	if err != nil {
		s.bus.Emit(events.Event{
			Type: events.EvEventListError,
			File: s.conf.EventList,
			Text: fmt.Sprintf("hook reload failed: %v", err),
		})
		return err
	}
	s.bus.Emit(events.Event{
		Type: events.EvEventListLoaded,
		File: s.conf.EventList,
		Text: fmt.Sprintf("hooks reloaded from %s", s.conf.EventList),
	})
	return nil
}

// Shutdown fires the SHUTDOWN hook and closes the scripting runtime and
// its stores.
func (s *Ship) Shutdown() {
	s.bridge.Invoke(script.ActionShutdown)
	s.bridge.Close()
	s.closeStores()
}

func (s *Ship) closeStores() {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			log.Printf("WARNING: closing script storage: %v", err)
		}
	}
	if s.sqldb != nil {
		if err := s.sqldb.Close(); err != nil {
			log.Printf("WARNING: closing sql store: %v", err)
		}
	}
}

// Uptime reports time since the ship started.
func (s *Ship) Uptime() time.Duration {
	return time.Since(s.startTime)
}
