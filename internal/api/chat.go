package api

import (
	"context"
	"errors"
	"net/http"

	"levelup/internal/models"
)

// chatMessagesResponse is the success/data envelope the chat history endpoint uses.
type chatMessagesResponse struct {
	Success bool                 `json:"success"`
	Data    []models.ChatMessage `json:"data"`
}

// ErrChatHistory indicates the chat history endpoint answered without success.
var ErrChatHistory = errors.New("api: chat history unavailable")

// ChatMessages fetches the persisted message history for a room.
func (c *Client) ChatMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	var resp chatMessagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/messages/"+roomID, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ErrChatHistory
	}
	return resp.Data, nil
}
