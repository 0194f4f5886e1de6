package models

import (
	"time"

	"github.com/google/uuid"
)

// M-Pesa transaction statuses. A transaction starts pending, moves to
// processing once the STK push is accepted by Daraja, and settles into one
// of the terminal states from the callback or a status query.
const (
	TxPending    = "pending"
	TxProcessing = "processing"
	TxCompleted  = "completed"
	TxFailed     = "failed"
	TxCancelled  = "cancelled"
	TxTimeout    = "timeout"
)

type MpesaTransaction struct {
	ID      uuid.UUID  `json:"id"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`

	Phone  string `json:"phone"`
	Amount int64  `json:"amount"` // cents

	MerchantRequestID string `json:"merchant_request_id,omitempty"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`

	Status     string `json:"status"`
	ResultCode *int   `json:"result_code,omitempty"`
	ResultDesc string `json:"result_desc,omitempty"`
	Receipt    string `json:"mpesa_receipt,omitempty"`

	InitiatedAt time.Time  `json:"initiated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

func (t *MpesaTransaction) Prepare() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TxPending
	}
	if t.InitiatedAt.IsZero() {
		t.InitiatedAt = time.Now().UTC()
	}
}

// IsTerminal reports whether the transaction reached a settled state.
func (t *MpesaTransaction) IsTerminal() bool {
	switch t.Status {
	case TxCompleted, TxFailed, TxCancelled, TxTimeout:
		return true
	}
	return false
}

// MpesaCallback stores the raw Daraja callback payload for audit and replay.
// Rows older than 90 days are purged by a weekly task.
type MpesaCallback struct {
	ID                uuid.UUID `json:"id"`
	CheckoutRequestID string    `json:"checkout_request_id"`
	Payload           []byte    `json:"payload"`
	IPAddress         string    `json:"ip_address,omitempty"`
	Processed         bool      `json:"processed"`
	CreatedAt         time.Time `json:"created_at"`
}

// Refund statuses.
const (
	RefundPending   = "pending"
	RefundCompleted = "completed"
	RefundFailed    = "failed"
)

type MpesaRefund struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	Amount        int64      `json:"amount"` // cents
	Reason        string     `json:"reason,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
