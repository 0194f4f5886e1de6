package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopbackend/internal/models"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const transactionColumns = `id, order_id, phone, amount,
	merchant_request_id, checkout_request_id,
	status, result_code, result_desc, mpesa_receipt,
	initiated_at, completed_at, failed_at`

func scanTransaction(row pgx.Row) (*models.MpesaTransaction, error) {
	var t models.MpesaTransaction
	err := row.Scan(
		&t.ID, &t.OrderID, &t.Phone, &t.Amount,
		&t.MerchantRequestID, &t.CheckoutRequestID,
		&t.Status, &t.ResultCode, &t.ResultDesc, &t.Receipt,
		&t.InitiatedAt, &t.CompletedAt, &t.FailedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PaymentRepository) CreateTransaction(ctx context.Context, t *models.MpesaTransaction) error {
	t.Prepare()

	query := `
		INSERT INTO mpesa_transactions (id, order_id, phone, amount,
			merchant_request_id, checkout_request_id, status, initiated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		t.ID, t.OrderID, t.Phone, t.Amount,
		t.MerchantRequestID, t.CheckoutRequestID, t.Status, t.InitiatedAt,
	)
	return err
}

func (r *PaymentRepository) UpdateTransaction(ctx context.Context, t *models.MpesaTransaction) error {
	query := `
		UPDATE mpesa_transactions SET
			merchant_request_id = $2,
			checkout_request_id = $3,
			status = $4,
			result_code = $5,
			result_desc = $6,
			mpesa_receipt = $7,
			completed_at = $8,
			failed_at = $9
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.MerchantRequestID,
		t.CheckoutRequestID,
		t.Status,
		t.ResultCode,
		t.ResultDesc,
		t.Receipt,
		t.CompletedAt,
		t.FailedAt,
	)
	return err
}

func (r *PaymentRepository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.MpesaTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM mpesa_transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

func (r *PaymentRepository) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.MpesaTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM mpesa_transactions WHERE checkout_request_id = $1
		ORDER BY initiated_at DESC LIMIT 1`
	return scanTransaction(r.pool.QueryRow(ctx, query, checkoutRequestID))
}

// FindProcessingBefore returns non-terminal transactions initiated before the
// cutoff; status polling and the stuck-transaction timeout both feed on it.
func (r *PaymentRepository) FindProcessingBefore(ctx context.Context, cutoff time.Time) ([]models.MpesaTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM mpesa_transactions
		WHERE status IN ('pending', 'processing') AND initiated_at < $1
		ORDER BY initiated_at`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.MpesaTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *PaymentRepository) CountsSince(ctx context.Context, since time.Time) (int, int, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('failed', 'cancelled', 'timeout'))
		FROM mpesa_transactions
		WHERE initiated_at >= $1
	`
	var total, failed int
	if err := r.pool.QueryRow(ctx, query, since).Scan(&total, &failed); err != nil {
		return 0, 0, err
	}
	return total, failed, nil
}

func (r *PaymentRepository) SumCompletedOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `SELECT COALESCE(SUM(amount), 0)
		FROM mpesa_transactions
		WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2`

	var total int64
	if err := r.pool.QueryRow(ctx, query, start, end).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PaymentRepository) CreateCallback(ctx context.Context, cb *models.MpesaCallback) error {
	if cb.ID == uuid.Nil {
		cb.ID = uuid.New()
	}
	query := `
		INSERT INTO mpesa_callbacks (id, checkout_request_id, payload, ip_address, processed, created_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW())
	`
	_, err := r.pool.Exec(ctx, query, cb.ID, cb.CheckoutRequestID, cb.Payload, cb.IPAddress)
	return err
}

func (r *PaymentRepository) MarkCallbackProcessed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE mpesa_callbacks SET processed = TRUE WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PaymentRepository) DeleteCallbacksBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM mpesa_callbacks WHERE processed = TRUE AND created_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PaymentRepository) CreateRefund(ctx context.Context, refund *models.MpesaRefund) error {
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	if refund.Status == "" {
		refund.Status = models.RefundPending
	}
	query := `
		INSERT INTO mpesa_refunds (id, transaction_id, amount, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query, refund.ID, refund.TransactionID, refund.Amount, refund.Reason, refund.Status)
	return err
}

func (r *PaymentRepository) FindRefundByID(ctx context.Context, id uuid.UUID) (*models.MpesaRefund, error) {
	query := `SELECT id, transaction_id, amount, reason, status, created_at, completed_at
		FROM mpesa_refunds WHERE id = $1`

	var refund models.MpesaRefund
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&refund.ID,
		&refund.TransactionID,
		&refund.Amount,
		&refund.Reason,
		&refund.Status,
		&refund.CreatedAt,
		&refund.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}
