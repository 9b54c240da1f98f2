package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// Profile fetches the profile for the given username.
func (c *Client) Profile(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/"+username, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// PatchProfile applies a partial profile update and returns the backend's view
// of the profile after the write.
func (c *Client) PatchProfile(ctx context.Context, username string, patch models.ProfilePatch) (*models.Profile, error) {
	var resp models.ProfileResponse
	if err := c.do(ctx, http.MethodPatch, "/api/profile/"+username, patch, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// AddWrongAnswer appends a wrong-answer record to the profile.
func (c *Client) AddWrongAnswer(ctx context.Context, username string, wrong models.WrongAnswer) (*models.Profile, error) {
	body := map[string]models.WrongAnswer{"wrongAnswer": wrong}
	var resp models.ProfileResponse
	if err := c.do(ctx, http.MethodPatch, "/api/profile/"+username+"/wrong-answer", body, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// DailyStreak triggers the daily-streak check for the given username and
// returns the profile with any streak bonuses applied.
func (c *Client) DailyStreak(ctx context.Context, username string) (*models.Profile, error) {
	var resp models.ProfileResponse
	if err := c.do(ctx, http.MethodPost, "/api/profile/"+username+"/daily-streak", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}
