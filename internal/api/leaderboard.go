package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// Leaderboard periods accepted by the backend.
const (
	PeriodGlobal  = "global"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Leaderboard fetches the ranked player list for the given period.
func (c *Client) Leaderboard(ctx context.Context, period string) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard/"+period, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Ranking fetches the given player's global rank.
func (c *Client) Ranking(ctx context.Context, username string) (*models.Ranking, error) {
	var ranking models.Ranking
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard/ranking/"+username, nil, &ranking); err != nil {
		return nil, err
	}
	return &ranking, nil
}
