package lobby

import (
	"github.com/solward/shipserver/pkg/quest"
)

// Party adapts a lobby to the quest dispatcher's read view.
type Party struct {
	lb *Lobby
}

// AsParty wraps the lobby for quest dispatch.
func AsParty(lb *Lobby) Party {
	return Party{lb: lb}
}

// Slot returns the occupant of slot i as a quest client. An empty slot
// comes back as an untyped nil so the dispatcher's nil check holds.
func (p Party) Slot(i int) quest.Client {
	c := p.lb.ClientAt(i)
	if c == nil {
		return nil
	}
	return c
}

func (p Party) ClientCount() uint32 {
	return uint32(p.lb.ClientCount())
}

func (p Party) RandUint32() uint32 {
	return p.lb.RandUint32()
}
