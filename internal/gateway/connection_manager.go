package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/scopesprint/scopesprint/internal/workshop"
)

// Outbound message types.
const (
	MessageTypeGameState = "gameState"
	MessageTypeError     = "error"
)

// ServerMessage is the envelope for everything the server pushes.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EventSink consumes inbound client events. Implemented by workshop.Router.
type EventSink interface {
	HandleEvent(connID uuid.UUID, ev workshop.Event) error
}

// ConnectionManager manages WebSocket connections, pooled by room code. The
// per-room pool is the room's live connection set: many connections may
// reference one room, and a connection belongs to exactly one room for its
// lifetime, bound at upgrade time rather than inferred later.
type ConnectionManager struct {
	roomConnections map[string]map[*Connection]bool
	connsByID       map[uuid.UUID]*Connection
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage
}

// Connection represents one client socket. Send is never closed: fan-out may
// still hold a reference to a connection that tore down after the target set
// was snapshotted, and a send must never panic. Teardown is signalled through
// done instead.
type Connection struct {
	ID       uuid.UUID
	RoomCode string
	Conn     *websocket.Conn
	Send     chan []byte
	done     chan struct{}
	Manager  *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds socket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// broadcastMessage is one unit of fan-out work. A nil target means every
// connection in the room; a set target delivers to that connection only.
type broadcastMessage struct {
	roomCode string
	target   *Connection
	payload  []byte
}

// DefaultConnectionConfig returns the configuration used in production.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024, // feedback maps for the full catalog fit comfortably
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		roomConnections: make(map[string]map[*Connection]bool),
		connsByID:       make(map[uuid.UUID]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start processes broadcast fan-out until ctx is cancelled. Running it on a
// single goroutine keeps deliveries to any one connection in the order the
// snapshots were captured: no client observes the phase move backward.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Broadcast implements workshop.Broadcaster. Delivery is fire-and-forget:
// the enqueue never blocks, and a dropped message self-heals on the next
// snapshot.
func (cm *ConnectionManager) Broadcast(roomCode string, snap workshop.Snapshot) {
	payload, err := json.Marshal(ServerMessage{Type: MessageTypeGameState, Data: snap})
	if err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("failed to marshal snapshot")
		return
	}
	select {
	case cm.broadcastCh <- broadcastMessage{roomCode: roomCode, payload: payload}:
	default:
		log.Warn().Str("room_code", roomCode).Msg("broadcast channel full, dropping snapshot")
	}
}

// SendError implements workshop.Broadcaster, reporting a problem to the
// originating connection only.
func (cm *ConnectionManager) SendError(connID uuid.UUID, message string) {
	cm.mu.RLock()
	conn, ok := cm.connsByID[connID]
	cm.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(ServerMessage{
		Type: MessageTypeError,
		Data: map[string]string{"message": message},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal error message")
		return
	}
	select {
	case cm.broadcastCh <- broadcastMessage{roomCode: conn.RoomCode, target: conn, payload: payload}:
	default:
		log.Warn().Str("connection_id", connID.String()).Msg("broadcast channel full, dropping error")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket bound to
// roomCode and starts its pumps. Inbound events are fed to sink.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, roomCode string, sink EventSink) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New(),
		RoomCode:    roomCode,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		done:        make(chan struct{}),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump(sink)

	log.Info().
		Str("connection_id", connection.ID.String()).
		Str("room_code", roomCode).
		Msg("websocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.roomConnections[conn.RoomCode] == nil {
		cm.roomConnections[conn.RoomCode] = make(map[*Connection]bool)
	}
	cm.roomConnections[conn.RoomCode][conn] = true
	cm.connsByID[conn.ID] = conn

	log.Debug().
		Str("connection_id", conn.ID.String()).
		Str("room_code", conn.RoomCode).
		Int("room_connections", len(cm.roomConnections[conn.RoomCode])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.roomConnections[conn.RoomCode]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}

	delete(connections, conn)
	delete(cm.connsByID, conn.ID)
	// Send stays open; an in-flight fan-out that captured this connection
	// before the lock was taken may still deliver into the buffer. Closing
	// done tells the write pump to drain out instead.
	close(conn.done)

	// The pool empties when the last socket drops; the Room itself is
	// retained by the store for the process lifetime.
	if len(connections) == 0 {
		delete(cm.roomConnections, conn.RoomCode)
	}

	log.Info().
		Str("connection_id", conn.ID.String()).
		Str("room_code", conn.RoomCode).
		Msg("connection unregistered")
}

// RoomConnectionCount returns the number of live connections for a room.
func (cm *ConnectionManager) RoomConnectionCount(roomCode string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.roomConnections[roomCode])
}

func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	var targets []*Connection

	cm.mu.RLock()
	if message.target != nil {
		if _, live := cm.connsByID[message.target.ID]; live {
			targets = []*Connection{message.target}
		}
	} else {
		for conn := range cm.roomConnections[message.roomCode] {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message.payload:
		default:
			// Slow or dead consumer: drop it rather than stall the room.
			log.Warn().
				Str("connection_id", conn.ID.String()).
				Str("room_code", conn.RoomCode).
				Msg("send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("room_code", message.roomCode).
		Int("connections", len(targets)).
		Msg("message fanned out")
}

// Stats returns counts of active connections and rooms with live sockets.
func (cm *ConnectionManager) Stats() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	total := 0
	perRoom := make(map[string]int, len(cm.roomConnections))
	for code, connections := range cm.roomConnections {
		total += len(connections)
		perRoom[code] = len(connections)
	}

	return map[string]any{
		"total_connections": total,
		"active_rooms":      len(cm.roomConnections),
		"room_connections":  perRoom,
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID.String()).
					Msg("failed to write message")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump decodes inbound envelopes and hands them to the sink. Router
// errors are already reported to the offending connection, so they are not
// fatal here; only socket errors end the loop.
func (c *Connection) readPump(sink EventSink) {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID.String()).
					Msg("unexpected websocket close")
			}
			break
		}

		var ev workshop.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Warn().
				Err(err).
				Str("connection_id", c.ID.String()).
				Msg("discarding unparseable client message")
			c.Manager.SendError(c.ID, "invalid message")
			continue
		}

		_ = sink.HandleEvent(c.ID, ev)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
