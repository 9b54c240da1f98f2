package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// Login authenticates with the backend and returns the issued bearer token.
// The token is not retained on the client; callers decide whether to install
// it via SetToken.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := models.AuthRequest{Username: username, Password: password}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", req, nil)
}

// ForgotPassword requests a password reset email for the given address.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", body, nil)
}

// ResetPassword completes a password reset using the emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	body := map[string]string{"token": resetToken, "password": newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", body, nil)
}
