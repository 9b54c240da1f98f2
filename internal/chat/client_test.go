package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelup/internal/models"
	"levelup/internal/pkg/auth"
	"levelup/internal/pkg/logger"
)

// chatServer is a minimal websocket endpoint recording inbound frames and
// allowing the test to push frames back to the client.
type chatServer struct {
	server   *httptest.Server
	inbound  chan Frame
	outbound chan Frame
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	cs := &chatServer{
		inbound:  make(chan Frame, 32),
		outbound: make(chan Frame, 32),
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	cs.server = httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(res, req, nil)
		if err != nil {
			return
		}
		go func() {
			for frame := range cs.outbound {
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
		}()
		for {
			var frame Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			cs.inbound <- frame
		}
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *chatServer) url() string {
	return "ws" + strings.TrimPrefix(cs.server.URL, "http")
}

func (cs *chatServer) push(t *testing.T, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	cs.outbound <- Frame{Event: event, Data: payload}
}

func (cs *chatServer) nextFrame(t *testing.T) Frame {
	t.Helper()
	select {
	case frame := <-cs.inbound:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func (cs *chatServer) expectNoFrame(t *testing.T) {
	t.Helper()
	select {
	case frame := <-cs.inbound:
		t.Fatalf("unexpected frame %q", frame.Event)
	case <-time.After(200 * time.Millisecond):
	}
}

func testIdentity() auth.Identity {
	return auth.Identity{Username: "alice", UserID: "user-1"}
}

func newConnectedClient(t *testing.T, cs *chatServer, identity auth.Identity, handlers Handlers) *Client {
	t.Helper()
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	client := NewClient(cs.url(), identity, handlers, l)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(client.Close)
	return client
}

func TestJoinEmitsRoomEvent(t *testing.T) {
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{})

	require.NoError(t, client.Join("general"))

	frame := cs.nextFrame(t)
	assert.Equal(t, EventJoinRoom, frame.Event)

	var payload struct {
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
		UserID   string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, "general", payload.RoomID)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, "user-1", payload.UserID)
}

func TestJoinWithoutUserID(t *testing.T) {
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, auth.Identity{Username: "alice"}, Handlers{})

	assert.ErrorIs(t, client.Join("general"), ErrNoUserID)
	cs.expectNoFrame(t)
}

func TestSendMessage(t *testing.T) {
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{})
	require.NoError(t, client.Join("general"))
	cs.nextFrame(t) // join frame

	client.SendMessage("  hello there  ")

	frame := cs.nextFrame(t)
	assert.Equal(t, EventSendMessage, frame.Event)

	var payload struct {
		RoomID      string `json:"roomId"`
		Message     string `json:"message"`
		MessageType string `json:"messageType"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, "general", payload.RoomID)
	assert.Equal(t, "hello there", payload.Message)
	assert.Equal(t, models.MessageTypeText, payload.MessageType)
}

func TestSendMessageDropsBlankAndAnonymous(t *testing.T) {
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{})
	require.NoError(t, client.Join("general"))
	cs.nextFrame(t)

	client.SendMessage("   \n\t ")
	cs.expectNoFrame(t)

	anonymous := newConnectedClient(t, cs, auth.Identity{Username: "ghost"}, Handlers{})
	anonymous.SendMessage("hello")
	cs.expectNoFrame(t)
}

func TestConcurrentSendMessage(t *testing.T) {
	const (
		senders           = 4
		messagesPerSender = 25
	)

	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{})
	require.NoError(t, client.Join("general"))
	cs.nextFrame(t)

	var wg sync.WaitGroup
	for sender := 0; sender < senders; sender++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			for i := 0; i < messagesPerSender; i++ {
				client.SendMessage(fmt.Sprintf("message %d-%d", sender, i))
			}
		}(sender)
	}

	received := make(map[string]struct{}, senders*messagesPerSender)
	for len(received) < senders*messagesPerSender {
		frame := cs.nextFrame(t)
		require.Equal(t, EventSendMessage, frame.Event)

		var payload struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(frame.Data, &payload))
		received[payload.Message] = struct{}{}
	}
	wg.Wait()
}

func TestIncomingMessagesDispatch(t *testing.T) {
	messages := make(chan models.ChatMessage, 4)
	errs := make(chan string, 4)
	cs := newChatServer(t)
	newConnectedClient(t, cs, testIdentity(), Handlers{
		OnMessage: func(msg models.ChatMessage) { messages <- msg },
		OnError:   func(msg string) { errs <- msg },
	})

	cs.push(t, EventNewMessage, models.ChatMessage{Username: "bob", Message: "hi", MessageType: models.MessageTypeText})
	cs.push(t, EventHelpRequest, models.ChatMessage{Username: "carol", Message: "help!", MessageType: models.MessageTypeHelpRequest})
	cs.push(t, EventMessageError, map[string]string{"message": "room closed"})

	select {
	case msg := <-messages:
		assert.Equal(t, "bob", msg.Username)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	select {
	case msg := <-messages:
		assert.Equal(t, models.MessageTypeHelpRequest, msg.MessageType)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for help request")
	}
	select {
	case msg := <-errs:
		assert.Equal(t, "room closed", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestTypingIndicatorDebounce(t *testing.T) {
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{})
	require.NoError(t, client.Join("general"))
	cs.nextFrame(t)

	// Repeated keystrokes emit a single typing-start.
	client.NotifyTyping()
	client.NotifyTyping()
	client.NotifyTyping()

	frame := cs.nextFrame(t)
	assert.Equal(t, EventTypingStart, frame.Event)
	cs.expectNoFrame(t)

	// One second of silence emits typing-stop.
	frame = cs.nextFrame(t)
	assert.Equal(t, EventTypingStop, frame.Event)
}

func TestTypingUsersTracked(t *testing.T) {
	typing := make(chan string, 4)
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{
		OnTyping: func(username string, isTyping bool) { typing <- username },
	})

	cs.push(t, EventUserTyping, map[string]interface{}{"username": "bob", "isTyping": true})
	select {
	case <-typing:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for typing event")
	}
	assert.Equal(t, []string{"bob"}, client.TypingUsers())

	cs.push(t, EventUserTyping, map[string]interface{}{"username": "bob", "isTyping": false})
	select {
	case <-typing:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for typing event")
	}
	assert.Empty(t, client.TypingUsers())
}

func TestOnlineUsersDispatch(t *testing.T) {
	presence := make(chan []OnlineUser, 4)
	cs := newChatServer(t)
	newConnectedClient(t, cs, testIdentity(), Handlers{
		OnOnlineUsers: func(users []OnlineUser) { presence <- users },
	})

	cs.push(t, EventOnlineUsersUpdated, []OnlineUser{{Username: "alice"}, {Username: "bob"}})

	select {
	case users := <-presence:
		assert.Len(t, users, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for presence update")
	}
}

func TestLeaveClearsTypingUsers(t *testing.T) {
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{})
	require.NoError(t, client.Join("general"))
	cs.nextFrame(t)

	cs.push(t, EventUserTyping, map[string]interface{}{"username": "bob", "isTyping": true})
	require.Eventually(t, func() bool { return len(client.TypingUsers()) == 1 }, 2*time.Second, 10*time.Millisecond)

	client.Leave()
	assert.Empty(t, client.TypingUsers())

	frame := cs.nextFrame(t)
	assert.Equal(t, EventLeaveRoom, frame.Event)
}

func TestStatusTransitions(t *testing.T) {
	statuses := make(chan Status, 8)
	cs := newChatServer(t)
	client := newConnectedClient(t, cs, testIdentity(), Handlers{
		OnStatusChange: func(status Status) { statuses <- status },
	})

	select {
	case status := <-statuses:
		assert.Equal(t, StatusConnected, status)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connected status")
	}
	assert.Equal(t, StatusConnected, client.Status())
}
