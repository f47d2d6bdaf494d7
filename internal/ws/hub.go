package ws

import (
	"fmt"
	"sync"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
)

// Conn is the slice of a websocket connection the hub needs. Tests inject
// fakes; production wraps *websocket.Conn.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Group keys. Tenant id is baked into every key, so membership itself is
// the isolation boundary: a broadcast for tenant A cannot reach a set that
// holds tenant B connections.
func OrdersGroup(tenantID string) string { return "orders:" + tenantID }

func KitchenGroup(tenantID, station string) string {
	if station == "" {
		return "kitchen:" + tenantID
	}
	return fmt.Sprintf("kitchen:%s:%s", tenantID, station)
}

func NotifyGroup(tenantID, userID string) string {
	return fmt.Sprintf("notify:%s:%s", tenantID, userID)
}

// Hub is the connection registry for the realtime channels. Join/Leave are
// called from connect/disconnect handlers on many goroutines; Broadcast
// snapshots the member set under the read lock and writes outside it.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[Conn]struct{}
	byConn map[Conn]map[string]struct{}
	lg     *logger.Logger
}

func NewHub(lg *logger.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[Conn]struct{}),
		byConn: make(map[Conn]map[string]struct{}),
		lg:     lg,
	}
}

func (h *Hub) Join(group string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[Conn]struct{})
	}
	h.groups[group][c] = struct{}{}
	if h.byConn[c] == nil {
		h.byConn[c] = make(map[string]struct{})
	}
	h.byConn[c][group] = struct{}{}
}

func (h *Hub) Leave(group string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(group, c)
}

// LeaveAll removes a closed connection from every group it joined.
func (h *Hub) LeaveAll(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for group := range h.byConn[c] {
		h.drop(group, c)
	}
}

func (h *Hub) drop(group string, c Conn) {
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	if groups, ok := h.byConn[c]; ok {
		delete(groups, group)
		if len(groups) == 0 {
			delete(h.byConn, c)
		}
	}
}

// Broadcast delivers the envelope to every member of the group. A failed
// write evicts the connection; delivery failures never propagate to the
// state transition that produced the event.
func (h *Hub) Broadcast(group string, env domain.Envelope) {
	h.mu.RLock()
	members := make([]Conn, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if err := c.WriteJSON(env); err != nil {
			h.lg.Warn("ws_write_failed", map[string]any{"group": group, "error": err.Error()})
			_ = c.Close()
			h.LeaveAll(c)
		}
	}
}

// Members reports the current group size.
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
