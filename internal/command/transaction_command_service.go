package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/servicehub/marketplace/internal/payment"
	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/events"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionCommandService charges through the payment gateway and appends
// the outcome to the ledger. A successful charge and the booking's move to
// paid commit in the same database transaction.
type TransactionCommandService struct {
	db           *gorm.DB
	transactions *repository.TransactionRepository
	bookings     *repository.BookingRepository
	services     *repository.ServiceRepository
	gateway      payment.Gateway
	publisher    EventPublisher
	logger       *zap.Logger
}

func NewTransactionCommandService(
	db *gorm.DB,
	transactions *repository.TransactionRepository,
	bookings *repository.BookingRepository,
	services *repository.ServiceRepository,
	gateway payment.Gateway,
	publisher EventPublisher,
	logger *zap.Logger,
) *TransactionCommandService {
	return &TransactionCommandService{
		db:           db,
		transactions: transactions,
		bookings:     bookings,
		services:     services,
		gateway:      gateway,
		publisher:    publisher,
		logger:       logger,
	}
}

// RecordTransaction returns the failed ledger row together with an
// ErrPaymentDeclined error when the gateway declines the charge.
func (s *TransactionCommandService) RecordTransaction(ctx context.Context, cmd cqrs.RecordTransactionCommand) (*models.Transaction, error) {
	if cmd.Amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	currency, err := normalizeCurrency(cmd.Currency)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.PaymentToken) == "" {
		return nil, fmt.Errorf("%w: payment token is required", apperrors.ErrValidation)
	}

	booking, err := s.bookings.GetByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.AccountID != cmd.AccountID {
		return nil, fmt.Errorf("%w: booking belongs to another account", apperrors.ErrForbidden)
	}
	if cmd.ServiceID != "" && booking.ServiceID != cmd.ServiceID {
		return nil, fmt.Errorf("%w: booking is not for service %s", apperrors.ErrValidation, cmd.ServiceID)
	}

	transaction := &models.Transaction{
		ID:        utils.GenerateID(utils.PrefixTransaction),
		AccountID: booking.AccountID,
		ServiceID: booking.ServiceID,
		BookingID: booking.ID,
		Amount:    cmd.Amount,
		Currency:  currency,
	}
	if err := s.claim(ctx, booking, transaction.ID); err != nil {
		return nil, err
	}

	// One gateway charge per claim.
	result, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Amount:         transaction.Amount,
		Currency:       transaction.Currency,
		Source:         cmd.PaymentToken,
		Description:    "Booking " + booking.ID,
		IdempotencyKey: booking.ID + ":" + strconv.FormatInt(booking.Version, 10),
	})

	var decline *payment.DeclineError
	switch {
	case errors.As(err, &decline):
		defer s.release(ctx, transaction)
		return s.recordDecline(ctx, transaction, decline)
	case err != nil:
		s.release(ctx, transaction)
		s.logger.Error("payment gateway error", zap.String("bookingId", booking.ID), zap.Error(err))
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	transaction.Status = models.TransactionStatusSuccess
	transaction.ChargeID = result.ChargeID
	transaction.CreatedAt = time.Now().UTC()
	advancedFrom, err := s.commitSuccess(ctx, transaction)
	if err != nil {
		// The card was charged but nothing was written; the charge id is the only
		// trace. The claim is kept so the booking is not charged again before it expires.
		s.logger.Error("charge succeeded but ledger write failed",
			zap.String("transactionId", transaction.ID),
			zap.String("chargeId", transaction.ChargeID),
			zap.String("bookingId", transaction.BookingID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("transactionId", transaction.ID),
		zap.String("bookingId", transaction.BookingID),
		zap.Int64("amount", transaction.Amount),
	)
	s.publishRecorded(ctx, transaction)
	if advancedFrom != "" {
		publish(ctx, s.logger, s.publisher, events.BookingEventsStream, events.BookingStatusChanged, events.BookingStatusChangedEvent{
			BookingID: transaction.BookingID,
			AccountID: transaction.AccountID,
			From:      string(advancedFrom),
			To:        string(models.BookingStatusPaid),
		})
	}
	return transaction, nil
}

// claim takes the booking for one charge attempt. Paid, completed and
// cancelled bookings cannot be claimed, nor can a booking another attempt holds.
func (s *TransactionCommandService) claim(ctx context.Context, booking *models.Booking, claimID string) error {
	for attempt := 0; attempt < 3; attempt++ {
		if err := chargeable(booking); err != nil {
			return err
		}
		now := time.Now().UTC()
		if booking.PaymentInProgress(now) {
			return apperrors.ErrPaymentInProgress
		}
		ok, err := s.bookings.ClaimPayment(ctx, booking, claimID, now)
		if err != nil || ok {
			return err
		}
		current, err := s.bookings.GetByID(ctx, booking.ID)
		if err != nil {
			return err
		}
		*booking = *current
	}
	return apperrors.ErrConcurrentUpdate
}

func chargeable(booking *models.Booking) error {
	switch booking.Status {
	case models.BookingStatusCancelled:
		return fmt.Errorf("%w: booking is cancelled", apperrors.ErrInvalidTransition)
	case models.BookingStatusPaid, models.BookingStatusCompleted:
		return fmt.Errorf("%w: booking is already paid", apperrors.ErrInvalidTransition)
	}
	return nil
}

func (s *TransactionCommandService) release(ctx context.Context, transaction *models.Transaction) {
	if err := s.bookings.ReleasePaymentClaim(context.WithoutCancel(ctx), transaction.BookingID, transaction.ID); err != nil {
		s.logger.Warn("failed to release payment claim",
			zap.String("bookingId", transaction.BookingID),
			zap.String("transactionId", transaction.ID),
			zap.Error(err),
		)
	}
}

func (s *TransactionCommandService) recordDecline(ctx context.Context, transaction *models.Transaction, decline *payment.DeclineError) (*models.Transaction, error) {
	transaction.Status = models.TransactionStatusFailed
	transaction.FailureReason = decline.Reason
	transaction.CreatedAt = time.Now().UTC()
	if err := s.transactions.Create(ctx, transaction); err != nil {
		return nil, err
	}
	s.logger.Info("payment declined",
		zap.String("transactionId", transaction.ID),
		zap.String("bookingId", transaction.BookingID),
		zap.String("code", decline.Code),
	)
	s.publishRecorded(ctx, transaction)
	return transaction, fmt.Errorf("%w: %s", apperrors.ErrPaymentDeclined, decline.Reason)
}

// commitSuccess writes the ledger row, advances the booking to paid and
// releases the payment claim. A booking that moved concurrently keeps its
// state; the ledger row is still written because the money has moved. It
// returns the status the booking left, or "" when the booking was not advanced.
func (s *TransactionCommandService) commitSuccess(ctx context.Context, transaction *models.Transaction) (models.BookingStatus, error) {
	var advancedFrom models.BookingStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transactions.WithTx(tx).Create(ctx, transaction); err != nil {
			return err
		}
		bookings := s.bookings.WithTx(tx)
		if err := bookings.ReleasePaymentClaim(ctx, transaction.BookingID, transaction.ID); err != nil {
			return err
		}
		booking, err := bookings.GetByID(ctx, transaction.BookingID)
		if err != nil {
			return err
		}
		apply, planErr := planBookingTransition(booking.Status, models.BookingStatusPaid)
		if planErr != nil {
			s.logger.Warn("booking changed during payment; leaving status",
				zap.String("bookingId", booking.ID),
				zap.String("status", string(booking.Status)),
			)
			return nil
		}
		if !apply {
			return nil
		}
		from := booking.Status
		ok, err := bookings.CompareAndSetStatus(ctx, booking, models.BookingStatusPaid)
		if err != nil {
			return err
		}
		if ok {
			advancedFrom = from
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return advancedFrom, nil
}

func (s *TransactionCommandService) publishRecorded(ctx context.Context, t *models.Transaction) {
	publish(ctx, s.logger, s.publisher, events.TransactionEventsStream, events.TransactionRecorded, events.TransactionRecordedEvent{
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		BookingID:     t.BookingID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
	})
}

// Checkout pays for a booking, filling the amount from the service price when
// the caller leaves it out. Checking out a paid booking changes nothing. A
// free service is marked paid without a charge or a ledger row.
func (s *TransactionCommandService) Checkout(ctx context.Context, cmd cqrs.CheckoutCommand) (*models.CheckoutResult, error) {
	booking, err := s.bookings.GetByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.CanActFor(booking.AccountID) {
		return nil, fmt.Errorf("%w: booking belongs to another account", apperrors.ErrForbidden)
	}
	switch booking.Status {
	case models.BookingStatusPaid, models.BookingStatusCompleted:
		return &models.CheckoutResult{Booking: booking}, nil
	case models.BookingStatusCancelled:
		return nil, fmt.Errorf("%w: booking is cancelled", apperrors.ErrInvalidTransition)
	}

	var amount int64
	if cmd.Amount != nil {
		amount = *cmd.Amount
	} else {
		service, err := s.services.GetByID(ctx, booking.ServiceID)
		if err != nil {
			return nil, err
		}
		amount = utils.ToMinorUnits(service.Price)
		if amount == 0 {
			return s.checkoutFree(ctx, booking)
		}
	}

	transaction, err := s.RecordTransaction(ctx, cqrs.RecordTransactionCommand{
		AccountID:    booking.AccountID,
		ServiceID:    booking.ServiceID,
		BookingID:    booking.ID,
		Amount:       amount,
		Currency:     cmd.Currency,
		PaymentToken: cmd.PaymentToken,
	})
	if err != nil {
		return &models.CheckoutResult{Booking: booking, Transaction: transaction}, err
	}

	updated, err := s.bookings.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutResult{Booking: updated, Transaction: transaction}, nil
}

func (s *TransactionCommandService) checkoutFree(ctx context.Context, booking *models.Booking) (*models.CheckoutResult, error) {
	if booking.PaymentInProgress(time.Now().UTC()) {
		return nil, apperrors.ErrPaymentInProgress
	}
	from := booking.Status
	ok, err := s.bookings.CompareAndSetStatus(ctx, booking, models.BookingStatusPaid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrConcurrentUpdate
	}
	s.logger.Info("free booking checked out", zap.String("bookingId", booking.ID))
	publish(ctx, s.logger, s.publisher, events.BookingEventsStream, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID: booking.ID,
		AccountID: booking.AccountID,
		From:      string(from),
		To:        string(models.BookingStatusPaid),
	})
	return &models.CheckoutResult{Booking: booking}, nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", apperrors.ErrInvalidCurrency
	}
	for _, r := range currency {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return "", apperrors.ErrInvalidCurrency
		}
	}
	return currency, nil
}
