package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopbackend/internal/mpesa"
	"shopbackend/internal/repositories"
	"shopbackend/internal/responses"
	"shopbackend/internal/services"
	"shopbackend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	payments       repositories.PaymentStore
}

func NewPaymentHandler(paymentService *services.PaymentService, payments repositories.PaymentStore) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, payments: payments}
}

// Initiate triggers the STK push for an order.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id" binding:"required,uuid"`
		Phone   string `json:"phone"    binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	orderID, err := utils.ParseUUID(req.OrderID)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid order ID")
		return
	}

	tx, err := h.paymentService.InitiatePayment(c.Request.Context(), orderID, req.Phone)
	if err != nil {
		responses.Fail(c, http.StatusBadGateway, err, "Could not initiate payment")
		return
	}
	responses.Success(c, http.StatusAccepted, gin.H{
		"transaction_id":      tx.ID,
		"checkout_request_id": tx.CheckoutRequestID,
		"status":              tx.Status,
	}, "Payment prompt sent to your phone")
}

// Callback receives Daraja's STK push result. Daraja expects a 200 with
// ResultCode 0 regardless of the outcome; anything else causes re-delivery
// storms, so processing failures are only logged.
func (h *PaymentHandler) Callback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
		return
	}

	payload, err := mpesa.ParseCallback(raw)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
		return
	}

	if _, err := h.paymentService.RecordCallback(c.Request.Context(), payload, raw, c.ClientIP()); err != nil {
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

// Refund records a staff-initiated refund for a completed transaction. The
// amount is in cents; omitting it refunds the full transaction.
func (h *PaymentHandler) Refund(c *gin.Context) {
	txID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid transaction ID")
		return
	}

	var req struct {
		Amount int64  `json:"amount"`
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	refund, err := h.paymentService.InitiateRefund(c.Request.Context(), txID, req.Amount, req.Reason)
	if err != nil {
		responses.Fail(c, http.StatusUnprocessableEntity, err, "Could not initiate refund")
		return
	}
	responses.Success(c, http.StatusCreated, refund, "Refund recorded")
}

// Status returns the transaction so clients can poll while the customer
// completes the prompt on their phone.
func (h *PaymentHandler) Status(c *gin.Context) {
	txID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid transaction ID")
		return
	}

	tx, err := h.payments.FindTransactionByID(c.Request.Context(), txID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load transaction")
		return
	}
	if tx == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Transaction not found")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{
		"transaction_id": tx.ID,
		"status":         tx.Status,
		"result_desc":    tx.ResultDesc,
		"receipt":        tx.Receipt,
	}, "Transaction status retrieved")
}
