package events

import "time"

// EventType classifies bridge events for transport-specific encoding.
type EventType int

const (
	EvHookRegistered  EventType = iota // Handler bound to an action
	EvHookReleased                     // Handler removed from an action
	EvHookInvoked                      // Handler ran to completion
	EvHookError                        // Handler load or runtime failure
	EvEventListLoaded                  // Hook configuration (re)loaded
	EvEventListError                   // Hook configuration rejected
	EvQuestCall                        // Quest function dispatched
	EvQuestRejected                    // Quest call frame rejected
)

// String returns a short name for the event type.
func (t EventType) String() string {
	switch t {
	case EvHookRegistered:
		return "hook_registered"
	case EvHookReleased:
		return "hook_released"
	case EvHookInvoked:
		return "hook_invoked"
	case EvHookError:
		return "hook_error"
	case EvEventListLoaded:
		return "eventlist_loaded"
	case EvEventListError:
		return "eventlist_error"
	case EvQuestCall:
		return "quest_call"
	case EvQuestRejected:
		return "quest_rejected"
	default:
		return "unknown"
	}
}

// Event is a structured bridge event that flows through the bus to the
// admin feed and the logger. Action and Function are the script action
// name and quest function name; zero values mean not applicable.
type Event struct {
	Type      EventType
	Time      time.Time
	Action    string // script action name (hook events)
	File      string // script file (hook events)
	Function  string // quest function name (quest events)
	GuildCard uint32 // calling client (quest events)
	Result    int    // handler return or quest result code
	Text      string // pre-formatted line for plain-text sinks
}
