package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// Levels fetches the full level catalog. Array order defines the level index.
func (c *Client) Levels(ctx context.Context) ([]models.Level, error) {
	var levels []models.Level
	if err := c.do(ctx, http.MethodGet, "/api/levels", nil, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// CreateLevel appends a new level to the catalog. Admin only.
func (c *Client) CreateLevel(ctx context.Context, level models.Level) (*models.Level, error) {
	var created models.Level
	if err := c.do(ctx, http.MethodPost, "/api/levels", level, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateLevel replaces the level with the given id. Admin only.
func (c *Client) UpdateLevel(ctx context.Context, id string, level models.Level) error {
	return c.do(ctx, http.MethodPut, "/api/levels/"+id, level, nil)
}

// DeleteLevel removes the level with the given id. Admin only.
func (c *Client) DeleteLevel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/levels/"+id, nil, nil)
}
