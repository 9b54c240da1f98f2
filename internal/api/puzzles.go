package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// Marketplace lists the community puzzle marketplace.
func (c *Client) Marketplace(ctx context.Context) ([]models.Puzzle, error) {
	var puzzles []models.Puzzle
	if err := c.do(ctx, http.MethodGet, "/api/puzzles/marketplace", nil, &puzzles); err != nil {
		return nil, err
	}
	return puzzles, nil
}

// FeaturedPuzzles lists the currently featured puzzles.
func (c *Client) FeaturedPuzzles(ctx context.Context) ([]models.Puzzle, error) {
	var puzzles []models.Puzzle
	if err := c.do(ctx, http.MethodGet, "/api/puzzles/featured", nil, &puzzles); err != nil {
		return nil, err
	}
	return puzzles, nil
}

// PuzzleByID fetches one puzzle. The answer field is omitted by the backend
// for puzzles the caller did not create.
func (c *Client) PuzzleByID(ctx context.Context, id string) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	if err := c.do(ctx, http.MethodGet, "/api/puzzles/"+id, nil, &puzzle); err != nil {
		return nil, err
	}
	return &puzzle, nil
}

// CreatePuzzle publishes a new community puzzle.
func (c *Client) CreatePuzzle(ctx context.Context, puzzle models.Puzzle) (*models.Puzzle, error) {
	var created models.Puzzle
	if err := c.do(ctx, http.MethodPost, "/api/puzzles", puzzle, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SubmitPuzzleAnswer grades an answer server-side; the puzzle's stored answer
// never reaches the client for grading.
func (c *Client) SubmitPuzzleAnswer(ctx context.Context, id, answer string) (*models.PuzzleAnswerResult, error) {
	body := map[string]string{"answer": answer}
	var result models.PuzzleAnswerResult
	if err := c.do(ctx, http.MethodPost, "/api/puzzles/"+id+"/answer", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReviewPuzzle submits a rating for a puzzle.
func (c *Client) ReviewPuzzle(ctx context.Context, id string, review models.PuzzleReview) error {
	return c.do(ctx, http.MethodPost, "/api/puzzles/"+id+"/review", review, nil)
}
