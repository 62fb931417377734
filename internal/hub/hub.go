package hub

import (
	"context"
	"encoding/json"
	"log"
	"strings"
)

// Event is one server-to-client push frame.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Push event types offered to connected clients.
const (
	EventPriceUpdate          = "price-update"
	EventNotificationReceived = "notification-received"
)

// UserGroup returns the group name all of a user's connections join.
func UserGroup(userID string) string {
	return "user:" + userID
}

// SymbolGroup returns the group name for per-symbol price update fan-out.
func SymbolGroup(symbol string) string {
	return "symbol:" + strings.ToUpper(symbol)
}

type subscription struct {
	client *Client
	group  string
	join   bool
}

type groupMessage struct {
	group string
	data  []byte
}

// Hub maps long-lived client connections to identity groups and fans
// server pushes out to group members. All membership state is owned by the
// Run goroutine; other goroutines talk to it through channels.
type Hub struct {
	clients    map[*Client]struct{}
	groups     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	broadcast  chan groupMessage
}

// New creates a hub. Call Run before serving connections.
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription, 16),
		broadcast:  make(chan groupMessage, 256),
	}
}

// Run owns the membership state until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			if client.userID != "" {
				h.joinGroup(client, UserGroup(client.userID))
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
			}
		case sub := <-h.subscribe:
			if sub.join {
				h.joinGroup(sub.client, sub.group)
			} else {
				h.leaveGroup(sub.client, sub.group)
			}
		case msg := <-h.broadcast:
			// A group with no live members is a silent no-op.
			for client := range h.groups[msg.group] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer: drop the frame rather than block
					// the publisher. The inbox listing remains the
					// durable record.
					log.Printf("Dropping frame for slow connection in %s", msg.group)
				}
			}
		}
	}
}

// Broadcast offers an event to every member of a group. Never blocks the
// caller beyond the hub's buffered queue; an overflowing queue drops the
// event with a log line.
func (h *Hub) Broadcast(group string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event.Type, err)
		return
	}
	select {
	case h.broadcast <- groupMessage{group: group, data: data}:
	default:
		log.Printf("Hub broadcast queue full, dropping %s for %s", event.Type, group)
	}
}

// NotifyUser offers a notification-received event to a user's connections.
func (h *Hub) NotifyUser(userID string, payload interface{}) {
	h.Broadcast(UserGroup(userID), Event{Type: EventNotificationReceived, Data: payload})
}

// PushPriceUpdate offers a price-update event to a symbol's subscribers.
func (h *Hub) PushPriceUpdate(symbol string, payload interface{}) {
	h.Broadcast(SymbolGroup(symbol), Event{Type: EventPriceUpdate, Data: payload})
}

func (h *Hub) joinGroup(client *Client, group string) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]struct{})
	}
	h.groups[group][client] = struct{}{}
	client.groups[group] = struct{}{}
}

func (h *Hub) leaveGroup(client *Client, group string) {
	if members, ok := h.groups[group]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	delete(client.groups, group)
}

func (h *Hub) removeClient(client *Client) {
	for group := range client.groups {
		h.leaveGroup(client, group)
	}
	delete(h.clients, client)
	close(client.send)
}

// allowedToJoin enforces the group identity check: a client may join a user
// group only for its own authenticated id. Anonymous connections are allowed
// through in degraded/dev mode; production deployments should require
// authenticated connections.
func allowedToJoin(client *Client, group string) bool {
	if !strings.HasPrefix(group, "user:") {
		return true
	}
	if client.userID == "" {
		log.Printf("Anonymous connection joining %s (dev mode)", group)
		return true
	}
	return group == UserGroup(client.userID)
}
