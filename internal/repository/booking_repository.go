package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// ListByAccount returns the account's bookings, newest first.
func (r *BookingRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CompareAndSetStatus moves booking to status if nobody else changed it since
// it was read. On success booking is updated in place.
func (r *BookingRepository) CompareAndSetStatus(ctx context.Context, booking *models.Booking, status models.BookingStatus) (bool, error) {
	ok, err := compareAndSet(ctx, r.db, &models.Booking{}, booking.ID, booking.Version, map[string]any{
		"status": status,
	})
	if err != nil || !ok {
		return ok, err
	}
	booking.Status = status
	booking.Version++
	return true, nil
}

// ClaimPayment records claimID as the charge attempt holding booking, if
// nobody changed the booking since it was read.
func (r *BookingRepository) ClaimPayment(ctx context.Context, booking *models.Booking, claimID string, now time.Time) (bool, error) {
	ok, err := compareAndSet(ctx, r.db, &models.Booking{}, booking.ID, booking.Version, map[string]any{
		"payment_claim":      claimID,
		"payment_claimed_at": now,
	})
	if err != nil || !ok {
		return ok, err
	}
	booking.PaymentClaim = claimID
	booking.PaymentClaimedAt = &now
	booking.Version++
	return true, nil
}

// ReleasePaymentClaim clears the claim if claimID still holds it.
func (r *BookingRepository) ReleasePaymentClaim(ctx context.Context, bookingID, claimID string) error {
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND payment_claim = ?", bookingID, claimID).
		Updates(map[string]any{
			"payment_claim":      "",
			"payment_claimed_at": nil,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to release payment claim: %w", err)
	}
	return nil
}
