package query

import (
	"context"
	"fmt"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

// AdminQueryService backs the dashboard and the admin inboxes.
type AdminQueryService struct {
	dashboard *repository.DashboardRepository
	disputes  *repository.DisputeRepository
	tickets   *repository.SupportRepository
}

func NewAdminQueryService(
	dashboard *repository.DashboardRepository,
	disputes *repository.DisputeRepository,
	tickets *repository.SupportRepository,
) *AdminQueryService {
	return &AdminQueryService{dashboard: dashboard, disputes: disputes, tickets: tickets}
}

func (s *AdminQueryService) Dashboard(ctx context.Context) (*models.DashboardView, error) {
	return s.dashboard.Stats(ctx)
}

func (s *AdminQueryService) ListDisputes(ctx context.Context, q cqrs.ListDisputesQuery) ([]models.Dispute, error) {
	switch q.Status {
	case "", models.DisputeStatusOpen, models.DisputeStatusResolved:
	default:
		return nil, fmt.Errorf("%w: unknown dispute status %q", apperrors.ErrValidation, q.Status)
	}
	return s.disputes.List(ctx, q.Status)
}

func (s *AdminQueryService) ListSupportTickets(ctx context.Context) ([]models.SupportTicket, error) {
	return s.tickets.List(ctx)
}

type NotificationQueryService struct {
	notifications *repository.NotificationRepository
}

func NewNotificationQueryService(notifications *repository.NotificationRepository) *NotificationQueryService {
	return &NotificationQueryService{notifications: notifications}
}

func (s *NotificationQueryService) ListNotifications(ctx context.Context, q cqrs.ListNotificationsQuery) ([]models.Notification, error) {
	return s.notifications.ListByAccount(ctx, q.AccountID)
}
