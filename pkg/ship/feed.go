package ship

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solward/shipserver/pkg/events"
)

// feedMessage is the JSON encoding of a bridge event on the feed.
type feedMessage struct {
	Type      string `json:"type"`
	Time      string `json:"time"`
	Action    string `json:"action,omitempty"`
	File      string `json:"file,omitempty"`
	Function  string `json:"function,omitempty"`
	GuildCard uint32 `json:"guild_card,omitempty"`
	Result    int    `json:"result"`
	Text      string `json:"text,omitempty"`
}

// feedSubscriber buffers bridge events toward one websocket. A slow
// consumer drops events rather than stalling the bus.
type feedSubscriber struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	queue  chan events.Event
	done   chan struct{}
	closed atomic.Bool
}

func newFeedSubscriber(conn *websocket.Conn) *feedSubscriber {
	return &feedSubscriber{
		conn:  conn,
		queue: make(chan events.Event, 64),
		done:  make(chan struct{}),
	}
}

// Receive implements events.Subscriber.
func (fs *feedSubscriber) Receive(ev events.Event) {
	select {
	case fs.queue <- ev:
	default:
		// Feed consumer too slow; drop.
	}
}

// Closed implements events.Subscriber.
func (fs *feedSubscriber) Closed() bool {
	return fs.closed.Load()
}

func (fs *feedSubscriber) close() {
	if fs.closed.CompareAndSwap(false, true) {
		close(fs.done)
		fs.conn.Close()
	}
}

// writePump drains the queue to the websocket until the connection dies.
func (fs *feedSubscriber) writePump() {
	defer fs.close()
	for {
		select {
		case <-fs.done:
			return
		case ev := <-fs.queue:
			msg := feedMessage{
				Type:      ev.Type.String(),
				Time:      ev.Time.Format(time.RFC3339),
				Action:    ev.Action,
				File:      ev.File,
				Function:  ev.Function,
				GuildCard: ev.GuildCard,
				Result:    ev.Result,
				Text:      ev.Text,
			}
			fs.mu.Lock()
			fs.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err := fs.conn.WriteJSON(msg)
			fs.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleEventFeed upgrades the connection and streams bridge events.
func (as *AdminServer) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := as.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("event feed upgrade error: %v", err)
		return
	}

	fs := newFeedSubscriber(conn)
	as.ship.Bus().Subscribe(fs)

	go fs.writePump()

	// Read loop exists only to observe the close.
	go func() {
		defer func() {
			as.ship.Bus().Unsubscribe(fs)
			fs.close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
