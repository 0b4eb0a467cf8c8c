package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/events"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"go.uber.org/zap"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var recurrences = map[string]bool{
	"":         true,
	"daily":    true,
	"weekly":   true,
	"biweekly": true,
	"monthly":  true,
}

// BookingCommandService runs the booking lifecycle. New bookings start
// pending; status only moves forward along pending, confirmed, paid,
// completed, or sideways into cancelled before payment.
type BookingCommandService struct {
	bookings  *repository.BookingRepository
	services  *repository.ServiceRepository
	companies *repository.CompanyRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewBookingCommandService(
	bookings *repository.BookingRepository,
	services *repository.ServiceRepository,
	companies *repository.CompanyRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingCommandService {
	return &BookingCommandService{
		bookings:  bookings,
		services:  services,
		companies: companies,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBooking does not check for another booking of the same service at the
// same date and time.
func (s *BookingCommandService) CreateBooking(ctx context.Context, cmd cqrs.CreateBookingCommand) (*models.Booking, error) {
	date, clock, recurrence, err := parseSchedule(cmd.Date, cmd.Time, cmd.Recurrence)
	if err != nil {
		return nil, err
	}
	if _, err := s.services.GetByID(ctx, cmd.ServiceID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:         utils.GenerateID(utils.PrefixBooking),
		AccountID:  cmd.AccountID,
		ServiceID:  cmd.ServiceID,
		Date:       date,
		Time:       clock,
		Recurrence: recurrence,
		Status:     models.BookingStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	publish(ctx, s.logger, s.publisher, events.BookingEventsStream, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: booking.ID,
		AccountID: booking.AccountID,
		ServiceID: booking.ServiceID,
		Date:      booking.Date,
		Time:      booking.Time,
	})
	return booking, nil
}

func parseSchedule(date, clock, recurrence string) (string, string, string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", "", "", fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrInvalidSchedule)
	}
	t, err := time.Parse(TimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return "", "", "", fmt.Errorf("%w: time must be HH:MM", apperrors.ErrInvalidSchedule)
	}
	recurrence = strings.ToLower(strings.TrimSpace(recurrence))
	if !recurrences[recurrence] {
		return "", "", "", fmt.Errorf("%w: unknown recurrence %q", apperrors.ErrInvalidSchedule, recurrence)
	}
	return d.Format(DateLayout), t.Format(TimeLayout), recurrence, nil
}

// ConfirmBooking is a provider action: pending -> confirmed.
func (s *BookingCommandService) ConfirmBooking(ctx context.Context, cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
	return s.transition(ctx, cmd, models.BookingStatusConfirmed, s.authorizeProvider)
}

func (s *BookingCommandService) CancelBooking(ctx context.Context, cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
	return s.transition(ctx, cmd, models.BookingStatusCancelled, authorizeOwner)
}

// CompleteBooking is a provider action: paid -> completed.
func (s *BookingCommandService) CompleteBooking(ctx context.Context, cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
	return s.transition(ctx, cmd, models.BookingStatusCompleted, s.authorizeProvider)
}

type bookingAuthorizer func(ctx context.Context, actor auth.Identity, booking *models.Booking) error

func authorizeOwner(_ context.Context, actor auth.Identity, booking *models.Booking) error {
	if !actor.CanActFor(booking.AccountID) {
		return fmt.Errorf("%w: booking belongs to another account", apperrors.ErrForbidden)
	}
	return nil
}

func (s *BookingCommandService) authorizeProvider(ctx context.Context, actor auth.Identity, booking *models.Booking) error {
	if actor.IsAdmin() {
		return nil
	}
	service, err := s.services.GetByID(ctx, booking.ServiceID)
	if err != nil {
		return err
	}
	company, err := s.companies.GetByID(ctx, service.CompanyID)
	if err != nil {
		return err
	}
	if company.OwnerID != actor.AccountID {
		return fmt.Errorf("%w: service belongs to another provider", apperrors.ErrForbidden)
	}
	return nil
}

func (s *BookingCommandService) transition(ctx context.Context, cmd cqrs.BookingTransitionCommand, target models.BookingStatus, authorize bookingAuthorizer) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, cmd.Actor, booking); err != nil {
		return nil, err
	}
	apply, err := planBookingTransition(booking.Status, target)
	if err != nil || !apply {
		return booking, err
	}
	if target == models.BookingStatusCancelled && booking.PaymentInProgress(time.Now().UTC()) {
		return nil, apperrors.ErrPaymentInProgress
	}

	from := booking.Status
	ok, err := s.bookings.CompareAndSetStatus(ctx, booking, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.resolveLostRace(ctx, cmd.BookingID, target)
	}

	s.logger.Info("booking status changed",
		zap.String("bookingId", booking.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	publish(ctx, s.logger, s.publisher, events.BookingEventsStream, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID: booking.ID,
		AccountID: booking.AccountID,
		From:      string(from),
		To:        string(target),
	})
	return booking, nil
}

// resolveLostRace re-reads after a failed compare-and-set. If the winner left
// the booking where this request wanted it, the request succeeds as a no-op.
func (s *BookingCommandService) resolveLostRace(ctx context.Context, bookingID string, target models.BookingStatus) (*models.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	apply, err := planBookingTransition(current.Status, target)
	if err != nil {
		return nil, err
	}
	if apply {
		return nil, apperrors.ErrConcurrentUpdate
	}
	return current, nil
}

// planBookingTransition reports whether moving from current to target needs a
// write. A nil error with apply=false means the target is already reached.
func planBookingTransition(current, target models.BookingStatus) (bool, error) {
	if current == target {
		return false, nil
	}
	if target == models.BookingStatusCancelled {
		switch current {
		case models.BookingStatusPending, models.BookingStatusConfirmed:
			return true, nil
		}
		return false, fmt.Errorf("%w: a %s booking cannot be cancelled", apperrors.ErrInvalidTransition, current)
	}
	if current == models.BookingStatusCancelled {
		return false, fmt.Errorf("%w: booking is cancelled", apperrors.ErrInvalidTransition)
	}
	if current.Rank() > target.Rank() {
		return false, nil
	}
	if target == models.BookingStatusCompleted && current != models.BookingStatusPaid {
		return false, fmt.Errorf("%w: only paid bookings can be completed", apperrors.ErrInvalidTransition)
	}
	return true, nil
}
