// Package events fans project change events out to connected websocket
// clients. Services publish; the websocket handler registers connections.
package events

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

const (
	TaskCreated   = "task.created"
	TaskUpdated   = "task.updated"
	TaskDeleted   = "task.deleted"
	CommentAdded  = "comment.added"
	MemberAdded   = "member.added"
	MemberUpdated = "member.updated"
	MemberRemoved = "member.removed"
)

type Event struct {
	Type      string    `json:"type"`
	ProjectID uint      `json:"project_id"`
	ActorID   uint      `json:"actor_id"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*websocket.Conn]bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uint]map[*websocket.Conn]bool),
		logger:  logger,
	}
}

func (h *Hub) Register(projectID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*websocket.Conn]bool)
	}
	h.clients[projectID][conn] = true
}

func (h *Hub) Unregister(projectID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.drop(projectID, conn)
}

// ClientCount reports the number of connections subscribed to a project.
func (h *Hub) ClientCount(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[projectID])
}

// Publish sends the event to every client subscribed to its project.
// A nil hub is a no-op so services can run without realtime wiring.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}

	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	clients, exists := h.clients[event.ProjectID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing to sockets.
	conns := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.logger.Warn("failed to set write deadline", zap.Error(err))
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("failed to deliver event, dropping client",
				zap.Uint("project_id", event.ProjectID),
				zap.Error(err))

			h.mu.Lock()
			h.drop(event.ProjectID, conn)
			h.mu.Unlock()
			conn.Close()
		}
	}
}

// drop removes a connection; callers must hold the write lock.
func (h *Hub) drop(projectID uint, conn *websocket.Conn) {
	if clients, exists := h.clients[projectID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}
