package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
)

// AdminQuerier defines the dashboard and admin inbox reads.
type AdminQuerier interface {
	Dashboard(context.Context) (*models.DashboardView, error)
	ListDisputes(context.Context, cqrs.ListDisputesQuery) ([]models.Dispute, error)
	ListSupportTickets(context.Context) ([]models.SupportTicket, error)
}

type AdminHandler struct {
	queries AdminQuerier
}

func NewAdminHandler(queries AdminQuerier) *AdminHandler {
	return &AdminHandler{queries: queries}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	view, err := h.queries.Dashboard(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type ListDisputesResponse struct {
	Disputes []models.Dispute `json:"disputes"`
}

func (h *AdminHandler) ListDisputes(c *gin.Context) {
	disputes, err := h.queries.ListDisputes(c.Request.Context(), cqrs.ListDisputesQuery{Status: models.DisputeStatus(c.Query("status"))})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListDisputesResponse{Disputes: disputes})
}

type ListSupportTicketsResponse struct {
	Tickets []models.SupportTicket `json:"tickets"`
}

func (h *AdminHandler) ListSupportTickets(c *gin.Context) {
	tickets, err := h.queries.ListSupportTickets(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListSupportTicketsResponse{Tickets: tickets})
}
