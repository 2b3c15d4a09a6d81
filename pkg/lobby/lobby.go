// Package lobby holds the in-memory state of a game lobby or team: up to
// four client slots plus the deterministic random stream shared by the
// team's quest scripting.
package lobby

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
)

// Slots is the number of client slots in a lobby.
const Slots = 4

// Client is one connected player as the scripting layers see them. Field
// writes go through the setters so the packet layer can update position
// and area without holding lobby locks.
type Client struct {
	mu sync.Mutex

	guildCard uint32
	name      string
	class     uint32
	section   uint32

	area    uint32
	x, y, z float32

	send RegisterSender
}

// RegisterSender delivers quest register writes to a client's connection.
type RegisterSender interface {
	SendRegister(reg, value uint32) error
}

// NewClient builds a client with its immutable character facts.
func NewClient(guildCard uint32, name string, class, section uint32, send RegisterSender) *Client {
	return &Client{
		guildCard: guildCard,
		name:      name,
		class:     class,
		section:   section,
		send:      send,
	}
}

func (c *Client) GuildCard() uint32 { return c.guildCard }
func (c *Client) Name() string      { return c.name }
func (c *Client) ClassCode() uint32 { return c.class }
func (c *Client) SectionID() uint32 { return c.section }

// Area returns the floor the client currently stands on.
func (c *Client) Area() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.area
}

// Position returns the client's last reported world coordinates.
func (c *Client) Position() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y, c.z
}

// SetArea records a floor change reported by the client.
func (c *Client) SetArea(area uint32) {
	c.mu.Lock()
	c.area = area
	c.mu.Unlock()
}

// SetPosition records a movement update reported by the client.
func (c *Client) SetPosition(x, y, z float32) {
	c.mu.Lock()
	c.x, c.y, c.z = x, y, z
	c.mu.Unlock()
}

// SyncRegister pushes one quest register write to the client. Send
// failures are logged and swallowed; the connection layer owns the
// disconnect decision.
func (c *Client) SyncRegister(reg, value uint32) {
	if c.send == nil {
		return
	}
	if err := c.send.SendRegister(reg, value); err != nil {
		log.Printf("WARNING: register sync to %s failed: %v", c.name, err)
	}
}

// Lobby is one team's slot table and random stream.
type Lobby struct {
	id   uint32
	name string

	mu      sync.Mutex
	clients [Slots]*Client
	rng     *rand.Rand
}

// New creates a lobby. The seed fixes the quest random stream so a team
// that rejoins with the same seed replays the same draws.
func New(id uint32, name string, seed int64) *Lobby {
	return &Lobby{
		id:   id,
		name: name,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (lb *Lobby) ID() uint32   { return lb.id }
func (lb *Lobby) Name() string { return lb.name }

// Add places a client in the lowest free slot and returns its index.
func (lb *Lobby) Add(c *Client) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for i := range lb.clients {
		if lb.clients[i] == nil {
			lb.clients[i] = c
			return i, nil
		}
	}
	return -1, fmt.Errorf("lobby %d is full", lb.id)
}

// Remove clears the client's slot. Removing a client that is not present
// is a no-op.
func (lb *Lobby) Remove(c *Client) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for i := range lb.clients {
		if lb.clients[i] == c {
			lb.clients[i] = nil
			return
		}
	}
}

// ClientCount returns the number of occupied slots.
func (lb *Lobby) ClientCount() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	n := 0
	for i := range lb.clients {
		if lb.clients[i] != nil {
			n++
		}
	}
	return n
}

// ClientAt returns the occupant of slot i, or nil.
func (lb *Lobby) ClientAt(i int) *Client {
	if i < 0 || i >= Slots {
		return nil
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.clients[i]
}

// RandUint32 draws the next value from the lobby's quest random stream.
func (lb *Lobby) RandUint32() uint32 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.rng.Uint32()
}
