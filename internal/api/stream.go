package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// LabEvent describes websocket payloads emitted as trainees work through the
// lab: generated reports, mission completions and app store changes.
type LabEvent struct {
	Type      string           `json:"type"`
	EventID   string           `json:"event_id"`
	Report    *ReportDTO       `json:"report,omitempty"`
	Mission   *MissionDTO      `json:"mission,omitempty"`
	App       *InstalledAppDTO `json:"app,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// LabNotifier keeps track of active websocket clients and broadcasts lab
// events to trainer dashboards.
type LabNotifier struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastEvent *LabEvent
}

// NewLabNotifier constructs a notifier instance.
func NewLabNotifier() *LabNotifier {
	return &LabNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle. The
// most recent event is replayed so late joiners see current state.
func (n *LabNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.lastEvent
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the
// socket.
func (n *LabNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast stamps the event and sends it to all registered clients.
func (n *LabNotifier) Broadcast(event LabEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	snapshot := event
	if snapshot.Report != nil {
		trimmed := *snapshot.Report
		trimmed.Markdown = ""
		snapshot.Report = &trimmed
	}
	n.lastEvent = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

// LastEvent returns a copy of the most recently broadcast event.
func (n *LabNotifier) LastEvent() *LabEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastEvent == nil {
		return nil
	}
	copy := *n.lastEvent
	return &copy
}
