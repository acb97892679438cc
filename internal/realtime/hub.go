// Package realtime pushes stored notifications to connected dashboards.
package realtime

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"sayit/internal/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Envelope is the frame written to the socket.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type delivery struct {
	key     string
	payload []byte
}

// Hub tracks live connections per recipient (SubjectRef.Key). All map access
// happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	log        logrus.FieldLogger

	connections atomic.Int64
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		log:        log,
	}
}

// Run serves registrations and deliveries until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.connections.Store(0)
			return

		case c := <-h.register:
			if h.clients[c.key] == nil {
				h.clients[c.key] = make(map[*Client]bool)
			}
			h.clients[c.key][c] = true
			h.connections.Add(1)
			h.log.WithField("recipient", c.key).Debug("websocket client registered")

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.deliver:
			for c := range h.clients[d.key] {
				select {
				case c.send <- d.payload:
				default:
					// slow consumer; drop the connection, the client refetches on reconnect
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.key]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	h.connections.Add(-1)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.key)
	}
	h.log.WithField("recipient", c.key).Debug("websocket client unregistered")
}

// Connections is the number of live sockets on this instance.
func (h *Hub) Connections() int64 {
	return h.connections.Load()
}

// Publish pushes a notification to this instance's connections.
func (h *Hub) Publish(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(Envelope{Type: "notification", Data: n})
	if err != nil {
		return err
	}
	return h.Deliver(ctx, n.Recipient.Key(), payload)
}

// Deliver queues an encoded frame for every connection of key.
func (h *Hub) Deliver(ctx context.Context, key string, payload []byte) error {
	select {
	case h.deliver <- delivery{key: key, payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	key  string
}

// Attach registers conn for the recipient and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, recipient models.SubjectRef) {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		key:  recipient.Key(),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		if msg.Type == "ping" {
			select {
			case c.send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
