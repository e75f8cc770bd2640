package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// AdminRoom receives every change event plus order lifecycle events.
	AdminRoom = "adminRoom"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Broadcaster is the slice of the hub services emit through.
type Broadcaster interface {
	ToAdmin(event string, data interface{})
	ToRoom(room, event string, data interface{})
	Emit(event string, data interface{})
}

// Event is the wire envelope sent to clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// clientMessage is what clients send to manage room membership.
type clientMessage struct {
	Action string `json:"action"` // joinAdmin | leaveAdmin | joinUserRoom
	Room   string `json:"room,omitempty"`
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool
}

type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the read/write pumps.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		conn:  conn,
		send:  make(chan []byte, 64),
		rooms: make(map[string]bool),
	}

	h.mu.Lock()
	h.clients[cl] = true
	h.mu.Unlock()

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(cl *client) {
	defer h.drop(cl)

	cl.conn.SetReadLimit(4096)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		h.mu.Lock()
		switch msg.Action {
		case "joinAdmin":
			cl.rooms[AdminRoom] = true
		case "leaveAdmin":
			delete(cl.rooms, AdminRoom)
		case "joinUserRoom":
			if msg.Room != "" {
				cl.rooms["user:"+msg.Room] = true
			}
		}
		h.mu.Unlock()
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	cl.conn.Close()
}

func (h *Hub) broadcast(room, event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		if room != "" && !cl.rooms[room] {
			continue
		}
		select {
		case cl.send <- payload:
		default:
			// slow client, skip rather than block the broadcast
		}
	}
}

func (h *Hub) ToAdmin(event string, data interface{}) {
	h.broadcast(AdminRoom, event, data)
}

func (h *Hub) ToRoom(room, event string, data interface{}) {
	h.broadcast(room, event, data)
}

// Emit sends to every connected client regardless of room.
func (h *Hub) Emit(event string, data interface{}) {
	h.broadcast("", event, data)
}

// UserRoom names the per-user room for a user id.
func UserRoom(userID string) string {
	return "user:" + userID
}
