package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// SubmitSurvey sends one survey response.
func (c *Client) SubmitSurvey(ctx context.Context, survey models.SurveyResponse) error {
	return c.do(ctx, http.MethodPost, "/api/survey", survey, nil)
}

// SurveySummary fetches the aggregate survey statistics.
func (c *Client) SurveySummary(ctx context.Context) (*models.SurveySummary, error) {
	var summary models.SurveySummary
	if err := c.do(ctx, http.MethodGet, "/api/survey/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// AllSurveys lists every submitted survey response. Admin only.
func (c *Client) AllSurveys(ctx context.Context) ([]models.SurveyResponse, error) {
	var surveys []models.SurveyResponse
	if err := c.do(ctx, http.MethodGet, "/api/survey/all", nil, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}
