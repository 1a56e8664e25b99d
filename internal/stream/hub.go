// Package stream pushes session changes to websocket clients and applies
// the view commands they send back.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/metrics"
	"github.com/yourusername/race-insights/internal/models"
	"github.com/yourusername/race-insights/internal/service"
	"github.com/yourusername/race-insights/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 64
	refreshTimeout = 2 * time.Minute
)

// Message types sent to clients
const (
	MessageSnapshot = "snapshot"
	MessageChange   = "change"
	MessageAnalysis = "analysis"
	MessageLoad     = "load"
	MessageError    = "error"
)

// Message is the envelope of every frame written to a client
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ErrorPayload reports a rejected command to the client that sent it
type ErrorPayload struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}

// Controller is the part of the results service the hub drives
type Controller interface {
	LoadDate(ctx context.Context, date time.Time) (*service.LoadReport, error)
	SelectedAnalysis() (models.Analysis, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains the set of active clients and broadcasts session changes to them
type Hub struct {
	log        *logger.StreamLogger
	session    *session.Session
	controller Controller
	location   *time.Location

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	done chan struct{}
	once sync.Once
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// New creates a hub bound to a session. Refresh commands resolve "today" in loc.
func New(sess *session.Session, controller Controller, loc *time.Location, log *logrus.Logger) *Hub {
	if loc == nil {
		loc = time.UTC
	}
	return &Hub{
		log:        logger.NewStreamLogger(logger.OrNop(log)),
		session:    sess,
		controller: controller,
		location:   loc,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the hub until ctx is cancelled
func (h *Hub) Start(ctx context.Context) {
	unsubscribe := h.session.Subscribe(func(change session.Change) {
		h.Broadcast(Message{Type: MessageChange, Payload: change})
	})
	go func() {
		defer unsubscribe()
		h.run(ctx)
	}()
}

func (h *Hub) run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.UpdateStreamClients(n)
			h.log.LogClientConnected(client.id, n)
			client.send <- Message{Type: MessageSnapshot, Payload: h.session.Snapshot()}

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	n := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateStreamClients(n)
	h.log.LogClientDisconnected(client.id, n)
}

func (h *Hub) shutdown() {
	h.once.Do(func() { close(h.done) })

	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	metrics.UpdateStreamClients(0)
}

// Broadcast queues a message for every connected client. It drops the
// message once the hub has stopped.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWs upgrades the request and registers the client
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket upgrade error")
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan Message, sendBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ServeHTTP makes the hub mountable as an http.Handler
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWs(w, r)
}

// reply sends a message to this client only
func (c *Client) reply(message Message) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("client_id", c.id).Debug("WebSocket read error")
			}
			return
		}
		c.hub.handle(c, cmd)
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
			if err := c.conn.WriteJSON(message); err != nil {
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
