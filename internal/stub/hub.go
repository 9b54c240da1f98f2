package stub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"levelup/internal/chat"
	"levelup/internal/models"
	"levelup/internal/pkg/logger"
)

// wsClient is one connected chat participant.
type wsClient struct {
	conn     *websocket.Conn
	send     chan chat.Frame
	username string
	userID   string
	roomID   string
}

// Hub fans chat events out to every participant of a room. One hub serves all
// rooms of the development backend.
type Hub struct {
	backend *Backend
	log     *logger.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub(backend *Backend, l *logger.Logger) *Hub {
	return &Hub{
		backend: backend,
		log:     l,
		clients: make(map[*wsClient]struct{}),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// serveWS upgrades the connection and runs the read loop until the client
// disconnects.
func (h *Hub) serveWS(res http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(res, req, nil)
	if err != nil {
		h.log.Sugar().Errorf("Websocket upgrade failed: %s", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan chat.Frame, 32)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *wsClient) {
	defer h.disconnect(c)
	for {
		var frame chat.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		h.handleFrame(c, frame)
	}
}

func (h *Hub) writePump(c *wsClient) {
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

// disconnect drops the client and updates the room's presence list.
func (h *Hub) disconnect(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	roomID := c.roomID
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
	if roomID != "" {
		h.broadcastPresence(roomID)
	}
}

// handleFrame dispatches one inbound event.
func (h *Hub) handleFrame(c *wsClient, frame chat.Frame) {
	switch frame.Event {
	case chat.EventJoinRoom:
		var payload struct {
			RoomID   string `json:"roomId"`
			Username string `json:"username"`
			UserID   string `json:"userId"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.mu.Lock()
		c.roomID = payload.RoomID
		c.username = payload.Username
		c.userID = payload.UserID
		h.mu.Unlock()

		h.sendFrame(c, chat.EventOnlineUsers, h.onlineUsers(payload.RoomID))
		h.broadcastPresence(payload.RoomID)

	case chat.EventLeaveRoom:
		h.mu.Lock()
		roomID := c.roomID
		c.roomID = ""
		h.mu.Unlock()
		if roomID != "" {
			h.broadcastPresence(roomID)
		}

	case chat.EventSendMessage:
		var payload struct {
			RoomID      string `json:"roomId"`
			UserID      string `json:"userId"`
			Username    string `json:"username"`
			Message     string `json:"message"`
			MessageType string `json:"messageType"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		if payload.UserID == "" {
			h.sendFrame(c, chat.EventMessageError, map[string]string{"message": "user id required"})
			return
		}
		if payload.MessageType == "" {
			payload.MessageType = models.MessageTypeText
		}
		msg := models.ChatMessage{
			ID:            uuid.NewString(),
			RoomID:        payload.RoomID,
			Username:      payload.Username,
			Message:       payload.Message,
			MessageType:   payload.MessageType,
			FormattedTime: time.Now().Format("15:04"),
		}
		h.backend.appendMessage(msg)
		h.broadcast(payload.RoomID, chat.EventNewMessage, msg)

	case chat.EventRequestHelp:
		var payload struct {
			RoomID   string `json:"roomId"`
			UserID   string `json:"userId"`
			Username string `json:"username"`
			Question string `json:"question"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		if payload.UserID == "" {
			h.sendFrame(c, chat.EventHelpError, map[string]string{"message": "user id required"})
			return
		}
		msg := models.ChatMessage{
			ID:            uuid.NewString(),
			RoomID:        payload.RoomID,
			Username:      payload.Username,
			Message:       payload.Question,
			MessageType:   models.MessageTypeHelpRequest,
			FormattedTime: time.Now().Format("15:04"),
		}
		h.backend.appendMessage(msg)
		h.broadcast(payload.RoomID, chat.EventHelpRequest, msg)

	case chat.EventTypingStart, chat.EventTypingStop:
		var payload struct {
			RoomID   string `json:"roomId"`
			Username string `json:"username"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.broadcastExcept(c, payload.RoomID, chat.EventUserTyping, map[string]interface{}{
			"username": payload.Username,
			"isTyping": frame.Event == chat.EventTypingStart,
		})
	}
}

// onlineUsers snapshots the presence list of a room.
func (h *Hub) onlineUsers(roomID string) []chat.OnlineUser {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := make([]chat.OnlineUser, 0)
	for c := range h.clients {
		if c.roomID == roomID {
			users = append(users, chat.OnlineUser{Username: c.username})
		}
	}
	return users
}

// broadcastPresence pushes the updated presence list to everyone in the room.
func (h *Hub) broadcastPresence(roomID string) {
	h.broadcast(roomID, chat.EventOnlineUsersUpdated, h.onlineUsers(roomID))
}

// broadcast sends one event to every client in the room. Slow clients whose
// send buffer is full are skipped rather than blocking the hub.
func (h *Hub) broadcast(roomID, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	frame := chat.Frame{Event: event, Data: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.roomID != roomID {
			continue
		}
		select {
		case c.send <- frame:
		default:
		}
	}
}

// broadcastExcept sends one event to every room member but the sender.
func (h *Hub) broadcastExcept(sender *wsClient, roomID, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	frame := chat.Frame{Event: event, Data: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c == sender || c.roomID != roomID {
			continue
		}
		select {
		case c.send <- frame:
		default:
		}
	}
}

// sendFrame delivers one event to a single client.
func (h *Hub) sendFrame(c *wsClient, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	select {
	case c.send <- chat.Frame{Event: event, Data: payload}:
	default:
	}
}
