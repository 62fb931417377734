package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientCommand is the client-to-server control frame for group membership.
type clientCommand struct {
	Action string `json:"action"` // join, leave
	Group  string `json:"group"`
}

// Client is one open websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	// groups is only touched by the hub's Run goroutine.
	groups map[string]struct{}
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// it with the hub. Identity is resolved from the connection's credentials;
// an empty user id yields an anonymous (dev mode) connection.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		groups: make(map[string]struct{}),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump consumes join/leave commands until the connection drops.
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket read error: %v", err)
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("Ignoring unparseable client frame: %v", err)
			continue
		}

		switch cmd.Action {
		case "join":
			if cmd.Group == "" || !allowedToJoin(c, cmd.Group) {
				log.Printf("Rejected join of %s by user %q", cmd.Group, c.userID)
				continue
			}
			c.hub.subscribe <- subscription{client: c, group: cmd.Group, join: true}
		case "leave":
			c.hub.subscribe <- subscription{client: c, group: cmd.Group, join: false}
		default:
			log.Printf("Ignoring unknown client action %q", cmd.Action)
		}
	}
}

// writePump moves frames from the send channel to the connection and keeps
// the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
