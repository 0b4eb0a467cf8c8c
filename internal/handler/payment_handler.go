package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
)

// PaymentCommander defines the write-side operations used by PaymentHandler.
type PaymentCommander interface {
	RecordTransaction(context.Context, cqrs.RecordTransactionCommand) (*models.Transaction, error)
	Checkout(context.Context, cqrs.CheckoutCommand) (*models.CheckoutResult, error)
}

// PaymentQuerier defines the read-side operations used by PaymentHandler.
type PaymentQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.Transaction, error)
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.Transaction, error)
}

// ReceiptRenderer produces the PDF receipt for a transaction.
type ReceiptRenderer interface {
	Receipt(context.Context, cqrs.GetTransactionQuery) (*models.Receipt, error)
}

type PaymentHandler struct {
	commands PaymentCommander
	queries  PaymentQuerier
	receipts ReceiptRenderer
}

// CheckoutRequest amounts are in minor units; a missing amount charges the
// service price.
type CheckoutRequest struct {
	Amount       *int64 `json:"amount" validate:"omitempty,gt=0"`
	Currency     string `json:"currency" validate:"required,len=3,alpha"`
	PaymentToken string `json:"paymentToken" validate:"required,notblank"`
}

type PaymentRequest struct {
	BookingID    string `json:"bookingId" validate:"required"`
	ServiceID    string `json:"serviceId"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency" validate:"required,len=3,alpha"`
	PaymentToken string `json:"paymentToken" validate:"required,notblank"`
}

// DeclinedResponse carries the failed ledger row so the client can show the
// gateway's reason and retry.
type DeclinedResponse struct {
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
}

type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

func NewPaymentHandler(commands PaymentCommander, queries PaymentQuerier, receipts ReceiptRenderer) *PaymentHandler {
	return &PaymentHandler{commands: commands, queries: queries, receipts: receipts}
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.commands.Checkout(c.Request.Context(), cqrs.CheckoutCommand{
		Actor:        middleware.MustIdentity(c),
		BookingID:    c.Param("booking_id"),
		Amount:       req.Amount,
		Currency:     req.Currency,
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		var declined *models.Transaction
		if result != nil {
			declined = result.Transaction
		}
		h.respondWithPaymentError(c, err, declined)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecordPayment is the explicit-amount path; amount validation is left to the
// recorder so a non-positive amount reports the dedicated error.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	var req PaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	transaction, err := h.commands.RecordTransaction(c.Request.Context(), cqrs.RecordTransactionCommand{
		AccountID:    identity.AccountID,
		ServiceID:    req.ServiceID,
		BookingID:    req.BookingID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		h.respondWithPaymentError(c, err, transaction)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *PaymentHandler) respondWithPaymentError(c *gin.Context, err error, declined *models.Transaction) {
	if errors.Is(err, apperrors.ErrPaymentDeclined) && declined != nil {
		c.JSON(http.StatusBadRequest, DeclinedResponse{
			Message:     "Payment declined: " + declined.FailureReason,
			Transaction: declined,
		})
		return
	}
	middleware.RespondWithAppError(c, err)
}

func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	transactions, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{AccountID: identity.AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: transactions})
}

func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{
		Actor:         middleware.MustIdentity(c),
		TransactionID: c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *PaymentHandler) Receipt(c *gin.Context) {
	receipt, err := h.receipts.Receipt(c.Request.Context(), cqrs.GetTransactionQuery{
		Actor:         middleware.MustIdentity(c),
		TransactionID: c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+receipt.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", receipt.Content)
}
