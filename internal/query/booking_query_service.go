package query

import (
	"context"
	"fmt"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

// BookingQueryService serves booking reads. A booking is visible to the
// customer who made it, to the provider who owns the booked service, and to
// admins.
type BookingQueryService struct {
	bookings  *repository.BookingRepository
	services  *repository.ServiceRepository
	companies *repository.CompanyRepository
}

func NewBookingQueryService(
	bookings *repository.BookingRepository,
	services *repository.ServiceRepository,
	companies *repository.CompanyRepository,
) *BookingQueryService {
	return &BookingQueryService{bookings: bookings, services: services, companies: companies}
}

func (s *BookingQueryService) GetBooking(ctx context.Context, q cqrs.GetBookingQuery) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, q.BookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, q.Actor, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListOrders returns the caller's own bookings, newest first.
func (s *BookingQueryService) ListOrders(ctx context.Context, q cqrs.ListOrdersQuery) ([]models.Booking, error) {
	return s.bookings.ListByAccount(ctx, q.AccountID)
}

func (s *BookingQueryService) authorize(ctx context.Context, actor auth.Identity, booking *models.Booking) error {
	if actor.CanActFor(booking.AccountID) {
		return nil
	}
	if actor.Role == models.RoleProvider {
		service, err := s.services.GetByID(ctx, booking.ServiceID)
		if err != nil {
			return err
		}
		company, err := s.companies.GetByID(ctx, service.CompanyID)
		if err != nil {
			return err
		}
		if company.OwnerID == actor.AccountID {
			return nil
		}
	}
	return fmt.Errorf("%w: booking belongs to another account", apperrors.ErrForbidden)
}
