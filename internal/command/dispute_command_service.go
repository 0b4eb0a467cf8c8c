package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/events"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"go.uber.org/zap"
)

// DisputeCommandService opens and resolves customer disputes. Resolving an
// already resolved dispute is a no-op.
type DisputeCommandService struct {
	disputes  *repository.DisputeRepository
	services  *repository.ServiceRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewDisputeCommandService(
	disputes *repository.DisputeRepository,
	services *repository.ServiceRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *DisputeCommandService {
	return &DisputeCommandService{disputes: disputes, services: services, publisher: publisher, logger: logger}
}

func (s *DisputeCommandService) OpenDispute(ctx context.Context, cmd cqrs.OpenDisputeCommand) (*models.Dispute, error) {
	description := strings.TrimSpace(cmd.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description must not be empty", apperrors.ErrValidation)
	}
	if _, err := s.services.GetByID(ctx, cmd.ServiceID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	dispute := &models.Dispute{
		ID:          utils.GenerateID(utils.PrefixDispute),
		AccountID:   cmd.AccountID,
		ServiceID:   cmd.ServiceID,
		Description: description,
		Status:      models.DisputeStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, err
	}
	s.publishDispute(ctx, events.DisputeOpened, dispute)
	return dispute, nil
}

func (s *DisputeCommandService) ResolveDispute(ctx context.Context, cmd cqrs.ResolveDisputeCommand) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, cmd.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status == models.DisputeStatusResolved {
		return dispute, nil
	}
	ok, err := s.disputes.CompareAndSetStatus(ctx, dispute, models.DisputeStatusResolved)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.disputes.GetByID(ctx, cmd.DisputeID)
		if err != nil {
			return nil, err
		}
		if current.Status != models.DisputeStatusResolved {
			return nil, apperrors.ErrConcurrentUpdate
		}
		return current, nil
	}
	s.publishDispute(ctx, events.DisputeResolved, dispute)
	return dispute, nil
}

func (s *DisputeCommandService) publishDispute(ctx context.Context, eventType string, d *models.Dispute) {
	publish(ctx, s.logger, s.publisher, events.DisputeEventsStream, eventType, events.DisputeEvent{
		DisputeID: d.ID,
		AccountID: d.AccountID,
		ServiceID: d.ServiceID,
		Status:    string(d.Status),
	})
}

// SupportCommandService files support tickets.
type SupportCommandService struct {
	tickets *repository.SupportRepository
	logger  *zap.Logger
}

func NewSupportCommandService(tickets *repository.SupportRepository, logger *zap.Logger) *SupportCommandService {
	return &SupportCommandService{tickets: tickets, logger: logger}
}

func (s *SupportCommandService) CreateTicket(ctx context.Context, cmd cqrs.CreateSupportTicketCommand) (*models.SupportTicket, error) {
	message := strings.TrimSpace(cmd.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", apperrors.ErrValidation)
	}
	ticket := &models.SupportTicket{
		ID:        utils.GenerateID(utils.PrefixSupport),
		AccountID: cmd.AccountID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("support ticket created", zap.String("ticketId", ticket.ID), zap.String("accountId", ticket.AccountID))
	return ticket, nil
}
