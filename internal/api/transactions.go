package api

import (
	"context"
	"net/http"

	"levelup/internal/models"
)

// CreateTransaction submits a hint-point purchase request. The backend records
// it as pending until an admin approves or cancels it.
func (c *Client) CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	var created models.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", tx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Transactions lists every transaction. Admin only.
func (c *Client) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// UserTransactions lists the transactions created by the given username.
func (c *Client) UserTransactions(ctx context.Context, username string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions/user/"+username, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// SetTransactionStatus updates the approval status of a transaction. Admin only.
func (c *Client) SetTransactionStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"approveStatus": status}
	return c.do(ctx, http.MethodPatch, "/api/transactions/"+id, body, nil)
}
