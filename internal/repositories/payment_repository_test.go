package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/models"
)

func TestPaymentRepositoryRefundRoundTrip(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repo := NewPaymentRepository(pool)

	tx := &models.MpesaTransaction{
		Phone:  "254712345678",
		Amount: 750_000,
	}
	require.NoError(t, repo.CreateTransaction(ctx, tx))

	refund := &models.MpesaRefund{
		TransactionID: tx.ID,
		Amount:        750_000,
		Reason:        "order cancelled before dispatch",
	}
	require.NoError(t, repo.CreateRefund(ctx, refund))
	assert.Equal(t, models.RefundPending, refund.Status)

	found, err := repo.FindRefundByID(ctx, refund.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tx.ID, found.TransactionID)
	assert.Equal(t, int64(750_000), found.Amount)
	assert.Equal(t, "order cancelled before dispatch", found.Reason)
	assert.Equal(t, models.RefundPending, found.Status)
	assert.Nil(t, found.CompletedAt)
}
