// Package chat implements the real-time chat client: room join/leave, message
// and help-request sending, typing indicators with debounce, presence, and
// automatic reconnection with capped exponential backoff. Frames on the wire
// are JSON event envelopes; no message queuing or replay is attempted across
// disconnects, so sends while disconnected are dropped.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"levelup/internal/models"
	"levelup/internal/pkg/auth"
	"levelup/internal/pkg/logger"
)

// Event names on the chat channel.
const (
	EventJoinRoom           = "join-chat-room"
	EventLeaveRoom          = "leave-chat-room"
	EventSendMessage        = "send-message"
	EventNewMessage         = "new-message"
	EventRequestHelp        = "request-help"
	EventHelpRequest        = "help-request"
	EventTypingStart        = "typing-start"
	EventTypingStop         = "typing-stop"
	EventUserTyping         = "user-typing"
	EventOnlineUsers        = "online-users"
	EventOnlineUsersUpdated = "online-users-updated"
	EventMessageError       = "message-error"
	EventHelpError          = "help-error"
)

// Status is the connection state exposed for the UI indicator.
type Status string

// Connection states.
const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Predefined errors.
var (
	// ErrNoUserID indicates the auth token yields no user id; the room
	// cannot be joined and no join event is emitted.
	ErrNoUserID = errors.New("chat: no user id available")
	// ErrClosed indicates the client was closed.
	ErrClosed = errors.New("chat: client closed")
)

const (
	maxReconnectAttempts = 5
	reconnectBaseDelay   = time.Second
	reconnectMaxDelay    = 10 * time.Second
	typingIdleTimeout    = time.Second
	writeWait            = 10 * time.Second
	pingPeriod           = 30 * time.Second
	pongWait             = 60 * time.Second
	sendBufferSize       = 32
)

// Frame is the JSON event envelope carried on the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OnlineUser is one entry of the room presence list.
type OnlineUser struct {
	Username string `json:"username"`
}

// typingPayload is the user-typing event body.
type typingPayload struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// errorPayload is the message-error / help-error event body.
type errorPayload struct {
	Message string `json:"message"`
}

// joinPayload is the join-chat-room event body.
type joinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// outgoingMessage is the send-message event body.
type outgoingMessage struct {
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
}

// helpPayload is the request-help event body.
type helpPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Question string `json:"question"`
}

// Handlers are the callbacks invoked on incoming events. Registration is
// all-at-once on construction and torn down symmetrically on Close, so
// remount cycles cannot leak handlers. Nil callbacks are skipped.
type Handlers struct {
	OnMessage      func(models.ChatMessage)
	OnOnlineUsers  func([]OnlineUser)
	OnTyping       func(username string, isTyping bool)
	OnError        func(message string)
	OnStatusChange func(Status)
}

// Client is the chat connection for one identity. It is safe for concurrent use.
type Client struct {
	url      string
	identity auth.Identity
	handlers Handlers
	log      *logger.Logger

	dial func(ctx context.Context, url string) (*websocket.Conn, error)

	// writeMu serializes socket writes; gorilla connections support at most
	// one concurrent writer.
	writeMu sync.Mutex

	mu          sync.Mutex
	conn        *websocket.Conn
	status      Status
	roomID      string
	joined      bool
	typing      bool
	typingTimer *time.Timer
	typingUsers map[string]struct{}
	closed      bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewClient creates a chat client for the given socket URL and identity.
func NewClient(url string, identity auth.Identity, handlers Handlers, l *logger.Logger) *Client {
	return &Client{
		url:      url,
		identity: identity,
		handlers: handlers,
		log:      l,
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
		status:      StatusConnecting,
		typingUsers: make(map[string]struct{}),
		done:        make(chan struct{}),
	}
}

// Connect starts the connection manager. It returns after the first dial
// attempt resolves; reconnection continues in the background until the
// attempt budget is exhausted or the client is closed.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	conn, err := c.dial(ctx, c.url)
	if err != nil {
		c.wg.Add(1)
		go c.reconnectLoop(1)
		return err
	}
	c.attach(conn)
	return nil
}

// attach installs a live connection, rejoins the room if one was joined, and
// starts the read pump.
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	rejoin := c.joined
	c.mu.Unlock()

	c.setStatus(StatusConnected)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if rejoin {
		c.emitJoin()
	}

	c.wg.Add(2)
	go c.readPump(conn)
	go c.pingLoop(conn)
}

// reconnectLoop retries the dial with capped exponential backoff.
func (c *Client) reconnectLoop(attempt int) {
	defer c.wg.Done()
	for ; attempt <= maxReconnectAttempts; attempt++ {
		delay := reconnectBaseDelay << (attempt - 1)
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}

		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		c.log.Sugar().Infof("Attempting to reconnect (%d/%d)", attempt, maxReconnectAttempts)
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		conn, err := c.dial(ctx, c.url)
		cancel()
		if err == nil {
			c.attach(conn)
			return
		}
	}
	c.log.Sugar().Errorf("Reconnection failed after %d attempts", maxReconnectAttempts)
	c.setStatus(StatusDisconnected)
}

// readPump consumes frames until the connection drops, then kicks off
// reconnection unless the client was closed.
func (c *Client) readPump(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		c.dispatch(frame)
	}
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	c.setStatus(StatusConnecting)
	c.wg.Add(1)
	go c.reconnectLoop(1)
}

// pingLoop keeps the connection alive while it is attached.
func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			current := c.conn
			c.mu.Unlock()
			if current != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// dispatch routes one incoming frame to the registered handlers.
func (c *Client) dispatch(frame Frame) {
	switch frame.Event {
	case EventNewMessage, EventHelpRequest:
		var msg models.ChatMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}
	case EventOnlineUsers, EventOnlineUsersUpdated:
		var users []OnlineUser
		if err := json.Unmarshal(frame.Data, &users); err != nil {
			return
		}
		if c.handlers.OnOnlineUsers != nil {
			c.handlers.OnOnlineUsers(users)
		}
	case EventUserTyping:
		var payload typingPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		c.mu.Lock()
		if payload.IsTyping {
			c.typingUsers[payload.Username] = struct{}{}
		} else {
			delete(c.typingUsers, payload.Username)
		}
		c.mu.Unlock()
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(payload.Username, payload.IsTyping)
		}
	case EventMessageError, EventHelpError:
		var payload errorPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		if c.handlers.OnError != nil {
			c.handlers.OnError(payload.Message)
		}
	}
}

// emit writes one frame to the live connection. Frames are dropped when
// disconnected.
func (c *Client) emit(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteJSON(Frame{Event: event, Data: payload})
	c.writeMu.Unlock()
	if err != nil {
		c.log.Sugar().Errorf("Failed to emit %s: %s", event, err)
	}
}

func (c *Client) emitJoin() {
	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()
	c.emit(EventJoinRoom, joinPayload{
		RoomID:   roomID,
		Username: c.identity.Username,
		UserID:   c.identity.UserID,
	})
}

// Join enters a chat room. A missing user id is an error and no join event
// is emitted.
func (c *Client) Join(roomID string) error {
	if c.identity.UserID == "" {
		return ErrNoUserID
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.roomID = roomID
	c.joined = true
	c.mu.Unlock()

	c.emitJoin()
	return nil
}

// Leave exits the current room and clears the typing-user set.
func (c *Client) Leave() {
	c.mu.Lock()
	roomID := c.roomID
	joined := c.joined
	c.joined = false
	c.typingUsers = make(map[string]struct{})
	c.mu.Unlock()

	if joined {
		c.emit(EventLeaveRoom, roomID)
	}
}

// SendMessage sends a text message. It silently no-ops when the socket is
// disconnected, the text is blank, or no user id is available — the caller's
// compose box is cleared either way (fire-and-forget).
func (c *Client) SendMessage(text string) {
	text = strings.TrimSpace(text)
	if text == "" || c.identity.UserID == "" {
		return
	}

	c.mu.Lock()
	roomID := c.roomID
	wasTyping := c.typing
	c.typing = false
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	c.mu.Unlock()

	c.emit(EventSendMessage, outgoingMessage{
		RoomID:      roomID,
		UserID:      c.identity.UserID,
		Username:    c.identity.Username,
		Message:     text,
		MessageType: models.MessageTypeText,
	})
	if wasTyping {
		c.emitTyping(EventTypingStop)
	}
}

// RequestHelp broadcasts a help request to the room.
func (c *Client) RequestHelp(question string) {
	question = strings.TrimSpace(question)
	if question == "" || c.identity.UserID == "" {
		return
	}

	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()

	c.emit(EventRequestHelp, helpPayload{
		RoomID:   roomID,
		UserID:   c.identity.UserID,
		Username: c.identity.Username,
		Question: question,
	})
}

// NotifyTyping signals a keystroke. The first keystroke emits typing-start;
// one second of inactivity emits typing-stop.
func (c *Client) NotifyTyping() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	start := !c.typing
	c.typing = true
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(typingIdleTimeout, c.stopTyping)
	c.mu.Unlock()

	if start {
		c.emitTyping(EventTypingStart)
	}
}

func (c *Client) stopTyping() {
	c.mu.Lock()
	wasTyping := c.typing
	c.typing = false
	c.typingTimer = nil
	c.mu.Unlock()
	if wasTyping {
		c.emitTyping(EventTypingStop)
	}
}

func (c *Client) emitTyping(event string) {
	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()
	c.emit(event, joinPayload{
		RoomID:   roomID,
		Username: c.identity.Username,
		UserID:   c.identity.UserID,
	})
}

// TypingUsers returns the users currently typing, sorted for stable display.
func (c *Client) TypingUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]string, 0, len(c.typingUsers))
	for u := range c.typingUsers {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Status returns the connection status for the UI indicator.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	if c.status == status || c.closed {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.mu.Unlock()
	if c.handlers.OnStatusChange != nil {
		c.handlers.OnStatusChange(status)
	}
}

// Close leaves the room, tears down every handler registration, and closes
// the connection. The client cannot be reused.
func (c *Client) Close() {
	c.Leave()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.handlers = Handlers{}
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		conn.Close()
	}
	c.wg.Wait()
}
