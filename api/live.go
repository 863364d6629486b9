package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"reflector/events"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// LiveFrame is a single message pushed to live feed subscribers
type LiveFrame struct {
	Type       events.EventType `json:"type"`
	GameID     int64            `json:"gameId"`
	OccurredAt time.Time        `json:"occurredAt"`
	Payload    events.Event     `json:"payload"`
}

type liveClient struct {
	gameID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans game events out to websocket subscribers of that game
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[int64]map[*liveClient]struct{}
}

// NewHub creates a hub accepting connections from the given origins. "*" allows any origin.
func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		clients: make(map[int64]map[*liveClient]struct{}),
	}
}

// HandleEvent is an events.Handler forwarding game events to subscribers
func (h *Hub) HandleEvent(ctx context.Context, event events.Event) {
	gameEvent, ok := event.(events.GameEvent)
	if !ok {
		return
	}

	frame, err := json.Marshal(LiveFrame{
		Type:       event.Type(),
		GameID:     gameEvent.ForGame(),
		OccurredAt: time.Now().UTC(),
		Payload:    event,
	})
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to encode live frame")
		return
	}

	h.broadcast(gameEvent.ForGame(), frame)
}

func (h *Hub) broadcast(gameID int64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[gameID] {
		select {
		case c.send <- frame:
		default:
			// Slow client, drop it rather than block the bus
			h.removeLocked(c)
			log.WithField("gameID", gameID).Warn("Dropped slow live feed client")
		}
	}
}

// Subscribers returns the number of clients following a game
func (h *Hub) Subscribers(gameID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[gameID])
}

func (h *Hub) add(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.gameID] == nil {
		h.clients[c.gameID] = make(map[*liveClient]struct{})
	}
	h.clients[c.gameID][c] = struct{}{}
}

func (h *Hub) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *liveClient) {
	subs, ok := h.clients[c.gameID]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	close(c.send)
	if len(subs) == 0 {
		delete(h.clients, c.gameID)
	}
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.clients {
		for c := range subs {
			h.removeLocked(c)
		}
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(w, r)
	if !ok {
		return
	}

	// Unknown games are rejected before the upgrade
	if _, err := s.games.GetGame(r.Context(), gameID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade to WebSocket")
		return
	}

	client := &liveClient{
		gameID: gameID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	s.hub.add(client)

	log.WithField("gameID", gameID).Debug("Live feed client connected")

	go client.writePump()
	client.readPump(s.hub)
}

// readPump discards incoming messages and keeps the read deadline alive on pongs
func (c *liveClient) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("gameID", c.gameID).Debug("Live feed client read error")
			}
			return
		}
	}
}

// writePump sends queued frames and periodic pings until send is closed
func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
