package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
)

// BookingCommander defines the write-side operations used by BookingHandler.
type BookingCommander interface {
	CreateBooking(context.Context, cqrs.CreateBookingCommand) (*models.Booking, error)
	ConfirmBooking(context.Context, cqrs.BookingTransitionCommand) (*models.Booking, error)
	CancelBooking(context.Context, cqrs.BookingTransitionCommand) (*models.Booking, error)
	CompleteBooking(context.Context, cqrs.BookingTransitionCommand) (*models.Booking, error)
}

// BookingQuerier defines the read-side operations used by BookingHandler.
type BookingQuerier interface {
	GetBooking(context.Context, cqrs.GetBookingQuery) (*models.Booking, error)
	ListOrders(context.Context, cqrs.ListOrdersQuery) ([]models.Booking, error)
}

type BookingHandler struct {
	commands BookingCommander
	queries  BookingQuerier
}

type CreateBookingRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	Recurrence string `json:"recurrence" validate:"omitempty,oneof=daily weekly biweekly monthly"`
}

type ListOrdersResponse struct {
	Orders []models.Booking `json:"orders"`
}

func NewBookingHandler(commands BookingCommander, queries BookingQuerier) *BookingHandler {
	return &BookingHandler{commands: commands, queries: queries}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.commands.CreateBooking(c.Request.Context(), cqrs.CreateBookingCommand{
		AccountID:  identity.AccountID,
		ServiceID:  c.Param("service_id"),
		Date:       req.Date,
		Time:       req.Time,
		Recurrence: req.Recurrence,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) ListOrders(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	orders, err := h.queries.ListOrders(c.Request.Context(), cqrs.ListOrdersQuery{AccountID: identity.AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListOrdersResponse{Orders: orders})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.queries.GetBooking(c.Request.Context(), cqrs.GetBookingQuery{
		Actor:     middleware.MustIdentity(c),
		BookingID: c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, h.commands.ConfirmBooking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, h.commands.CancelBooking)
}

func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, h.commands.CompleteBooking)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(context.Context, cqrs.BookingTransitionCommand) (*models.Booking, error)) {
	booking, err := fn(c.Request.Context(), cqrs.BookingTransitionCommand{
		Actor:     middleware.MustIdentity(c),
		BookingID: c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
