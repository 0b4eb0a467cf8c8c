package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
)

// DisputeCommander opens and resolves disputes.
type DisputeCommander interface {
	OpenDispute(context.Context, cqrs.OpenDisputeCommand) (*models.Dispute, error)
	ResolveDispute(context.Context, cqrs.ResolveDisputeCommand) (*models.Dispute, error)
}

// SupportCommander files support tickets.
type SupportCommander interface {
	CreateTicket(context.Context, cqrs.CreateSupportTicketCommand) (*models.SupportTicket, error)
}

// NotificationQuerier lists the caller's notifications.
type NotificationQuerier interface {
	ListNotifications(context.Context, cqrs.ListNotificationsQuery) ([]models.Notification, error)
}

// InboxHandler covers the customer-facing side of disputes, support tickets
// and notifications.
type InboxHandler struct {
	disputes      DisputeCommander
	support       SupportCommander
	notifications NotificationQuerier
}

type OpenDisputeRequest struct {
	ServiceID   string `json:"serviceId" validate:"required"`
	Description string `json:"description" validate:"required,notblank,max=5000"`
}

type SupportTicketRequest struct {
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

type ListNotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

func NewInboxHandler(disputes DisputeCommander, support SupportCommander, notifications NotificationQuerier) *InboxHandler {
	return &InboxHandler{disputes: disputes, support: support, notifications: notifications}
}

func (h *InboxHandler) OpenDispute(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	var req OpenDisputeRequest
	if !bindJSON(c, &req) {
		return
	}

	dispute, err := h.disputes.OpenDispute(c.Request.Context(), cqrs.OpenDisputeCommand{
		AccountID:   identity.AccountID,
		ServiceID:   req.ServiceID,
		Description: req.Description,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

func (h *InboxHandler) ResolveDispute(c *gin.Context) {
	dispute, err := h.disputes.ResolveDispute(c.Request.Context(), cqrs.ResolveDisputeCommand{DisputeID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

func (h *InboxHandler) CreateSupportTicket(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	var req SupportTicketRequest
	if !bindJSON(c, &req) {
		return
	}

	ticket, err := h.support.CreateTicket(c.Request.Context(), cqrs.CreateSupportTicketCommand{
		AccountID: identity.AccountID,
		Message:   req.Message,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *InboxHandler) ListNotifications(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	notifications, err := h.notifications.ListNotifications(c.Request.Context(), cqrs.ListNotificationsQuery{AccountID: identity.AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListNotificationsResponse{Notifications: notifications})
}
