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
	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/rs/zerolog/log"
)

// MessageHandler receives inbound frames and disconnect notices.
type MessageHandler interface {
	HandleMessage(connID string, raw []byte)
	HandleDisconnect(connID string)
}

// ConnectionManager owns every websocket and delivers outbound events to them.
// It knows nothing about sessions; addressing happens in the session package.
type ConnectionManager struct {
	conns map[string]*Connection
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  MessageHandler

	broadcastCh chan outbound
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	closeOnce sync.Once
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

type outbound struct {
	connID string
	event  *events.Event
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  16 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan outbound, 4096),
	}
}

// SetHandler wires the inbound side. Must be called before connections are accepted.
func (cm *ConnectionManager) SetHandler(h MessageHandler) {
	cm.handler = h
}

// Start delivers queued events until ctx is done. A single loop keeps
// per-connection ordering.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case msg := <-cm.broadcastCh:
			cm.deliver(msg)
		}
	}
}

// Send queues ev for a single connection. Delivery is fire-and-forget.
func (cm *ConnectionManager) Send(connID string, ev *events.Event) {
	select {
	case cm.broadcastCh <- outbound{connID: connID, event: ev}:
	default:
		log.Warn().
			Str("conn_id", connID).
			Str("event_type", string(ev.Type)).
			Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) deliver(msg outbound) {
	data, err := json.Marshal(msg.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	// Send is only closed under the write lock, so pushing under the read lock is safe.
	cm.mu.RLock()
	conn, ok := cm.conns[msg.connID]
	full := false
	if ok {
		select {
		case conn.Send <- data:
		default:
			full = true
		}
	}
	cm.mu.RUnlock()

	if full {
		log.Warn().Str("conn_id", conn.ID).Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) (string, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return "", fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		Conn:        ws,
		Send:        make(chan []byte, cm.sendBuffer()),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
	cm.registerConnection(conn)

	go conn.writePump()
	go conn.readPump()

	log.Info().
		Str("conn_id", conn.ID).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket connection established")
	return conn.ID, nil
}

func (cm *ConnectionManager) sendBuffer() int {
	if cm.config.SendBuffer > 0 {
		return cm.config.SendBuffer
	}
	return 256
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conns[conn.ID] = conn
	log.Debug().Str("conn_id", conn.ID).Int("total_connections", len(cm.conns)).Msg("connection registered")
}

// unregisterConnection removes a connection and reports whether it was still registered.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.conns[conn.ID]; !ok {
		return false
	}
	delete(cm.conns, conn.ID)
	conn.closeOnce.Do(func() { close(conn.Send) })
	log.Info().Str("conn_id", conn.ID).Msg("connection unregistered")
	return true
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.conns))
	for _, c := range cm.conns {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()
	for _, c := range conns {
		cm.unregisterConnection(c)
		c.Conn.Close()
	}
}

// Len is the number of open connections.
func (cm *ConnectionManager) Len() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns)
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	total := len(cm.conns)
	var oldest time.Time
	for _, c := range cm.conns {
		if oldest.IsZero() || c.ConnectedAt.Before(oldest) {
			oldest = c.ConnectedAt
		}
	}
	cm.mu.RUnlock()

	stats := map[string]interface{}{
		"total_connections": total,
		"queued_events":     len(cm.broadcastCh),
	}
	if !oldest.IsZero() {
		stats["oldest_connected_at"] = oldest.UTC().Format(time.RFC3339)
		stats["oldest_connection_age_sec"] = time.Since(oldest).Seconds()
	}
	return stats
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("conn_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("conn_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds inbound frames to the handler. Frames from one connection are
// handled in order.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
		if h := c.Manager.handler; h != nil {
			h.HandleDisconnect(c.ID)
		}
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("conn_id", c.ID).Msg("unexpected WebSocket close error")
			}
			return
		}
		if h := c.Manager.handler; h != nil {
			h.HandleMessage(c.ID, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
