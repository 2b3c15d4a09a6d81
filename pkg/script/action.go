// Package script embeds a Lua runtime and binds server lifecycle events to
// externally-authored handler scripts. All execution is serialized behind a
// single mutex: the runtime is not reentrant and must never be entered from
// two goroutines at once.
package script

// Action identifies a server lifecycle event that may have a script bound
// to it. Each action maps to at most one handler.
type Action int

const (
	ActionStartup Action = iota
	ActionShutdown
	ActionShipLogin
	ActionShipLogout
	ActionBlockLogin
	ActionBlockLogout
	ActionUnknownShipPacket
	ActionUnknownBlockPacket
	ActionUnknownEp3Packet
	ActionTeamCreate
	ActionTeamDestroy
	ActionTeamJoin
	ActionTeamLeave
	ActionEnemyKill
	ActionEnemyHit
	ActionBoxBreak
	ActionUnknownCommand
	ActionSData

	// ActionCount is the number of valid actions; it is not itself an action.
	ActionCount

	// ActionInvalid is returned by ParseAction for unknown event names.
	ActionInvalid Action = -1
)

// actionNames holds the textual event names used in the hook config
// document. Order must match the Action constants above.
var actionNames = [ActionCount]string{
	"STARTUP",
	"SHUTDOWN",
	"SHIP_LOGIN",
	"SHIP_LOGOUT",
	"BLOCK_LOGIN",
	"BLOCK_LOGOUT",
	"UNK_SHIP_PKT",
	"UNK_BLOCK_PKT",
	"UNK_EP3_PKT",
	"TEAM_CREATE",
	"TEAM_DESTROY",
	"TEAM_JOIN",
	"TEAM_LEAVE",
	"ENEMY_KILL",
	"ENEMY_HIT",
	"BOX_BREAK",
	"UNK_COMMAND",
	"SDATA",
}

// String returns the config-document name for the action.
func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "INVALID"
	}
	return actionNames[a]
}

// Valid reports whether a is a real action value.
func (a Action) Valid() bool {
	return a >= 0 && a < ActionCount
}

// ParseAction maps an event name from the hook config document to its
// Action. Unknown names return ActionInvalid.
func ParseAction(name string) Action {
	for i, n := range actionNames {
		if n == name {
			return Action(i)
		}
	}
	return ActionInvalid
}
