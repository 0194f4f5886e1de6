package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shopbackend/internal/mailer"
	"shopbackend/internal/models"
	"shopbackend/internal/mpesa"
	"shopbackend/internal/queue"
	"shopbackend/internal/repositories"
)

const (
	// Transactions still processing after this long get a status query.
	statusQueryAfter = 5 * time.Minute
	// Transactions not settled after this long are timed out.
	transactionTimeout = 2 * time.Hour
	// An hourly failure rate above this (with enough volume) pages admins.
	failureRateThreshold = 0.20
	failureRateMinVolume = 5
	// Processed callback payloads are kept this long.
	callbackRetention = 90 * 24 * time.Hour
)

// Daraja errors that mean "still waiting for the customer".
var pendingResultCodes = map[int]bool{
	1037: true, // timeout waiting for user input, may still settle
}

type PaymentService struct {
	payments    repositories.PaymentStore
	orders      repositories.OrderStore
	customers   repositories.CustomerStore
	daraja      *mpesa.Client
	tasks       queue.Enqueuer
	mail        mailer.Mailer
	log         *logrus.Logger
	adminEmails []string
}

func NewPaymentService(
	payments repositories.PaymentStore,
	orders repositories.OrderStore,
	customers repositories.CustomerStore,
	daraja *mpesa.Client,
	tasks queue.Enqueuer,
	mail mailer.Mailer,
	adminEmails []string,
	log *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		payments:    payments,
		orders:      orders,
		customers:   customers,
		daraja:      daraja,
		tasks:       tasks,
		mail:        mail,
		log:         log,
		adminEmails: adminEmails,
	}
}

// InitiatePayment sends the STK push for an order and records the
// transaction as processing.
func (s *PaymentService) InitiatePayment(ctx context.Context, orderID uuid.UUID, phone string) (*models.MpesaTransaction, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("order %s is already paid", order.OrderNumber)
	}

	tx := &models.MpesaTransaction{
		OrderID: &order.ID,
		Phone:   phone,
		Amount:  order.Total,
	}
	tx.Prepare()
	if err := s.payments.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	resp, err := s.daraja.STKPush(ctx, phone, order.Total, order.OrderNumber, "SoundWave Audio order "+order.OrderNumber)
	if err != nil {
		now := time.Now().UTC()
		tx.Status = models.TxFailed
		tx.ResultDesc = err.Error()
		tx.FailedAt = &now
		if uerr := s.payments.UpdateTransaction(ctx, tx); uerr != nil {
			s.log.WithError(uerr).Error("failed to record stk push failure")
		}
		return nil, err
	}

	tx.MerchantRequestID = resp.MerchantRequestID
	tx.CheckoutRequestID = resp.CheckoutRequestID
	tx.Status = models.TxProcessing
	if err := s.payments.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order":    order.OrderNumber,
		"checkout": tx.CheckoutRequestID,
	}).Info("stk push sent")
	return tx, nil
}

// RecordCallback stores the raw Daraja callback and queues its processing.
// Returns the audit row ID.
func (s *PaymentService) RecordCallback(ctx context.Context, payload *mpesa.CallbackPayload, raw []byte, ip string) (uuid.UUID, error) {
	cb := &models.MpesaCallback{
		CheckoutRequestID: payload.Body.StkCallback.CheckoutRequestID,
		Payload:           raw,
		IPAddress:         ip,
	}
	if err := s.payments.CreateCallback(ctx, cb); err != nil {
		return uuid.Nil, err
	}

	_, err := s.tasks.Delay(ctx, "payments.tasks.process_mpesa_callback_task",
		cb.ID.String(),
		payload.Body.StkCallback.CheckoutRequestID,
		payload.Body.StkCallback.ResultCode,
		payload.Body.StkCallback.ResultDesc,
		payload.Receipt(),
	)
	return cb.ID, err
}

// ProcessCallback settles a transaction from a recorded callback and updates
// the order's payment status.
func (s *PaymentService) ProcessCallback(ctx context.Context, callbackID uuid.UUID, checkoutRequestID string, resultCode int, resultDesc, receipt string) error {
	tx, err := s.payments.FindByCheckoutID(ctx, checkoutRequestID)
	if err != nil {
		return err
	}
	if tx == nil {
		return fmt.Errorf("no transaction for checkout %s", checkoutRequestID)
	}
	if tx.IsTerminal() {
		s.log.Warnf("callback for settled transaction %s ignored", tx.ID)
		return s.payments.MarkCallbackProcessed(ctx, callbackID)
	}

	if err := s.settle(ctx, tx, resultCode, resultDesc, receipt); err != nil {
		return err
	}
	return s.payments.MarkCallbackProcessed(ctx, callbackID)
}

// settle applies a Daraja result to a transaction and propagates it to the
// order.
func (s *PaymentService) settle(ctx context.Context, tx *models.MpesaTransaction, resultCode int, resultDesc, receipt string) error {
	now := time.Now().UTC()
	tx.ResultCode = &resultCode
	tx.ResultDesc = resultDesc

	switch {
	case resultCode == 0:
		tx.Status = models.TxCompleted
		tx.Receipt = receipt
		tx.CompletedAt = &now
	case resultCode == 1032:
		tx.Status = models.TxCancelled
		tx.FailedAt = &now
	default:
		tx.Status = models.TxFailed
		tx.FailedAt = &now
	}

	if err := s.payments.UpdateTransaction(ctx, tx); err != nil {
		return err
	}

	if tx.OrderID != nil {
		status := models.PaymentFailed
		if tx.Status == models.TxCompleted {
			status = models.PaymentPaid
		}
		if err := s.orders.SetPaymentStatus(ctx, *tx.OrderID, status); err != nil {
			return err
		}
		notify := "payments.tasks.send_payment_failed_notification"
		if tx.Status == models.TxCompleted {
			notify = "payments.tasks.send_payment_confirmation_email"
		}
		if _, err := s.tasks.Delay(ctx, notify, tx.ID.String()); err != nil {
			s.log.WithError(err).Warn("failed to enqueue payment notification")
		}
	}

	s.log.WithFields(logrus.Fields{
		"transaction": tx.ID,
		"status":      tx.Status,
		"result_code": resultCode,
	}).Info("mpesa transaction settled")
	return nil
}

// SendReceipt mails the payment receipt to the order's contact address.
func (s *PaymentService) SendReceipt(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.payments.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx == nil || tx.OrderID == nil {
		return nil
	}
	order, err := s.orders.FindByID(ctx, *tx.OrderID)
	if err != nil || order == nil {
		return err
	}

	var customerEmail string
	if order.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *order.CustomerID)
		if err == nil && customer != nil {
			customerEmail = customer.Email
		}
	}
	email := order.ContactEmail(customerEmail)
	if email == "" {
		return nil
	}

	body := fmt.Sprintf(
		"Payment received for order %s.\n\nAmount: %s\nM-Pesa receipt: %s\n\nThank you!",
		order.OrderNumber, models.KSh(tx.Amount), tx.Receipt,
	)
	if err := s.mail.Send(ctx, []string{email}, "Payment receipt "+order.OrderNumber, body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// SendPaymentFailed tells the customer their payment did not go through.
func (s *PaymentService) SendPaymentFailed(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.payments.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx == nil || tx.OrderID == nil {
		return nil
	}
	order, err := s.orders.FindByID(ctx, *tx.OrderID)
	if err != nil || order == nil {
		return err
	}

	var customerEmail string
	if order.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *order.CustomerID)
		if err == nil && customer != nil {
			customerEmail = customer.Email
		}
	}
	email := order.ContactEmail(customerEmail)
	if email == "" {
		return nil
	}

	reason := "The payment could not be completed"
	if tx.Status == models.TxCancelled {
		reason = "The payment request was cancelled"
	}

	body := fmt.Sprintf(
		"%s for order %s (%s).\n\nYou can retry the payment from your order page.",
		reason, order.OrderNumber, models.KSh(tx.Amount),
	)
	if err := s.mail.Send(ctx, []string{email}, "Payment failed for order "+order.OrderNumber, body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// InitiateRefund records a refund against a completed transaction and queues
// the customer notification. A zero amount refunds the full transaction.
func (s *PaymentService) InitiateRefund(ctx context.Context, transactionID uuid.UUID, amount int64, reason string) (*models.MpesaRefund, error) {
	tx, err := s.payments.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %s not found", transactionID)
	}
	if tx.Status != models.TxCompleted {
		return nil, fmt.Errorf("transaction %s is %s, only completed transactions can be refunded", transactionID, tx.Status)
	}
	if amount == 0 {
		amount = tx.Amount
	}
	if amount < 0 || amount > tx.Amount {
		return nil, fmt.Errorf("refund amount %s exceeds transaction amount %s", models.KSh(amount), models.KSh(tx.Amount))
	}

	refund := &models.MpesaRefund{
		TransactionID: tx.ID,
		Amount:        amount,
		Reason:        reason,
	}
	if err := s.payments.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}

	if tx.OrderID != nil && amount == tx.Amount {
		if err := s.orders.SetPaymentStatus(ctx, *tx.OrderID, models.PaymentRefunded); err != nil {
			s.log.WithError(err).Errorf("failed to mark order refunded for transaction %s", tx.ID)
		}
	}

	if _, err := s.tasks.Delay(ctx, "payments.tasks.send_refund_notification", refund.ID.String()); err != nil {
		s.log.WithError(err).Warn("failed to enqueue refund notification")
	}
	s.log.WithFields(logrus.Fields{
		"refund":      refund.ID,
		"transaction": tx.ID,
		"amount":      amount,
	}).Info("refund recorded")
	return refund, nil
}

// SendRefundNotification mails the customer that their refund is on its way.
func (s *PaymentService) SendRefundNotification(ctx context.Context, refundID uuid.UUID) error {
	refund, err := s.payments.FindRefundByID(ctx, refundID)
	if err != nil {
		return err
	}
	if refund == nil {
		return fmt.Errorf("refund %s not found", refundID)
	}
	tx, err := s.payments.FindTransactionByID(ctx, refund.TransactionID)
	if err != nil {
		return err
	}
	if tx == nil || tx.OrderID == nil {
		return nil
	}
	order, err := s.orders.FindByID(ctx, *tx.OrderID)
	if err != nil || order == nil {
		return err
	}

	var customerEmail string
	if order.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *order.CustomerID)
		if err == nil && customer != nil {
			customerEmail = customer.Email
		}
	}
	email := order.ContactEmail(customerEmail)
	if email == "" {
		return nil
	}

	body := fmt.Sprintf(
		"Your refund for order %s has been processed.\n\nAmount: %s\nOriginal receipt: %s\nReason: %s\n\nThe refund should appear in your M-Pesa account within 24-48 hours.",
		order.OrderNumber, models.KSh(refund.Amount), tx.Receipt, refund.Reason,
	)
	if err := s.mail.Send(ctx, []string{email}, "Refund processed for order "+order.OrderNumber, body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// CheckPendingTransactions queries Daraja for transactions processing longer
// than five minutes and settles the ones with a final result.
func (s *PaymentService) CheckPendingTransactions(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-statusQueryAfter)
	txs, err := s.payments.FindProcessingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range txs {
		tx := &txs[i]
		if tx.CheckoutRequestID == "" {
			continue
		}
		resp, err := s.daraja.QueryStatus(ctx, tx.CheckoutRequestID)
		if err != nil {
			s.log.WithError(err).Warnf("status query failed for transaction %s", tx.ID)
			continue
		}
		code, err := strconv.Atoi(resp.ResultCode)
		if err != nil {
			s.log.Warnf("unparseable result code %q for transaction %s", resp.ResultCode, tx.ID)
			continue
		}
		if pendingResultCodes[code] {
			continue
		}
		if err := s.settle(ctx, tx, code, resp.ResultDesc, ""); err != nil {
			s.log.WithError(err).Errorf("failed to settle transaction %s", tx.ID)
			continue
		}
		settled++
	}
	return settled, nil
}

// TimeoutStuckTransactions fails transactions that never settled within two
// hours.
func (s *PaymentService) TimeoutStuckTransactions(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-transactionTimeout)
	txs, err := s.payments.FindProcessingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	timedOut := 0
	for i := range txs {
		tx := &txs[i]
		tx.Status = models.TxTimeout
		tx.ResultDesc = "no callback or final status within 2h"
		tx.FailedAt = &now
		if err := s.payments.UpdateTransaction(ctx, tx); err != nil {
			s.log.WithError(err).Errorf("failed to time out transaction %s", tx.ID)
			continue
		}
		if tx.OrderID != nil {
			if err := s.orders.SetPaymentStatus(ctx, *tx.OrderID, models.PaymentFailed); err != nil {
				s.log.WithError(err).Errorf("failed to fail order payment for %s", tx.ID)
			}
		}
		timedOut++
	}
	if timedOut > 0 {
		s.log.Warnf("timed out %d stuck mpesa transactions", timedOut)
	}
	return timedOut, nil
}

// MonitorFailureRate alerts admins when the last hour's failure rate crosses
// the threshold.
func (s *PaymentService) MonitorFailureRate(ctx context.Context) (float64, error) {
	since := time.Now().UTC().Add(-time.Hour)
	total, failed, err := s.payments.CountsSince(ctx, since)
	if err != nil {
		return 0, err
	}
	if total < failureRateMinVolume {
		return 0, nil
	}

	rate := float64(failed) / float64(total)
	if rate <= failureRateThreshold || len(s.adminEmails) == 0 {
		return rate, nil
	}

	body := fmt.Sprintf(
		"M-Pesa failure rate in the last hour is %.0f%% (%d of %d transactions failed).\nCheck the Daraja status page and recent callbacks.",
		rate*100, failed, total,
	)
	if err := s.mail.Send(ctx, s.adminEmails, "High M-Pesa failure rate", body); err != nil {
		return rate, queue.Retry(err)
	}
	return rate, nil
}

// ReconcileDaily compares yesterday's completed M-Pesa totals against orders
// marked paid and mails admins on mismatch.
func (s *PaymentService) ReconcileDaily(ctx context.Context) error {
	yesterday := time.Now().UTC().Add(-24 * time.Hour)

	mpesaTotal, err := s.payments.SumCompletedOn(ctx, yesterday)
	if err != nil {
		return err
	}
	orderTotal, err := s.orders.SumPaidOn(ctx, yesterday)
	if err != nil {
		return err
	}

	if mpesaTotal == orderTotal {
		s.log.Infof("payment reconciliation clean: %s", models.KSh(mpesaTotal))
		return nil
	}
	if len(s.adminEmails) == 0 {
		s.log.Warnf("payment reconciliation mismatch: mpesa %s vs orders %s",
			models.KSh(mpesaTotal), models.KSh(orderTotal))
		return nil
	}

	body := fmt.Sprintf(
		"Reconciliation mismatch for %s:\n\nCompleted M-Pesa: %s\nOrders marked paid: %s\nDifference: %s\n",
		yesterday.Format("2006-01-02"), models.KSh(mpesaTotal), models.KSh(orderTotal), models.KSh(mpesaTotal-orderTotal),
	)
	if err := s.mail.Send(ctx, s.adminEmails, "Payment reconciliation mismatch", body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// RefreshApiToken fetches a fresh Daraja token into the cache so request
// paths never block on OAuth.
func (s *PaymentService) RefreshApiToken(ctx context.Context) error {
	if _, err := s.daraja.RefreshToken(ctx); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// CleanupCallbacks purges processed callback payloads past retention.
func (s *PaymentService) CleanupCallbacks(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-callbackRetention)
	return s.payments.DeleteCallbacksBefore(ctx, cutoff)
}
