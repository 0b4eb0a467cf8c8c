package command

import (
	"context"
	"fmt"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/events"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"go.uber.org/zap"
)

// NotificationProjector is the Redis stream subscriber handler that turns
// domain events into in-app notifications for the affected account.
type NotificationProjector struct {
	notifications *repository.NotificationRepository
	logger        *zap.Logger
}

func NewNotificationProjector(notifications *repository.NotificationRepository, logger *zap.Logger) *NotificationProjector {
	return &NotificationProjector{notifications: notifications, logger: logger}
}

func (p *NotificationProjector) HandleEvent(ctx context.Context, event events.Event) error {
	accountID, title, message, err := describe(event)
	if err != nil {
		return err
	}
	if accountID == "" {
		return nil
	}
	n := &models.Notification{
		ID:        utils.GenerateID(utils.PrefixNotification),
		AccountID: accountID,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if event.ID != "" {
		eventID := event.ID
		n.EventID = &eventID
	}
	created, err := p.notifications.Create(ctx, n)
	if err != nil {
		return err
	}
	if !created {
		p.logger.Debug("duplicate event skipped", zap.String("type", event.Type), zap.String("eventId", event.ID))
		return nil
	}
	p.logger.Debug("notification projected", zap.String("type", event.Type), zap.String("accountId", accountID))
	return nil
}

// describe returns an empty account id for events nobody is notified about.
func describe(event events.Event) (accountID, title, message string, err error) {
	switch event.Type {
	case events.BookingCreated:
		var data events.BookingCreatedEvent
		if err := event.Decode(&data); err != nil {
			return "", "", "", err
		}
		return data.AccountID, "Booking received",
			fmt.Sprintf("Your booking %s for %s at %s is pending confirmation.", data.BookingID, data.Date, data.Time), nil
	case events.BookingStatusChanged:
		var data events.BookingStatusChangedEvent
		if err := event.Decode(&data); err != nil {
			return "", "", "", err
		}
		return data.AccountID, "Booking " + data.To,
			fmt.Sprintf("Your booking %s is now %s.", data.BookingID, data.To), nil
	case events.TransactionRecorded:
		var data events.TransactionRecordedEvent
		if err := event.Decode(&data); err != nil {
			return "", "", "", err
		}
		amount := utils.FormatMinorUnits(data.Amount) + " " + data.Currency
		if data.Status == string(models.TransactionStatusSuccess) {
			return data.AccountID, "Payment received",
				fmt.Sprintf("We received your payment of %s for booking %s.", amount, data.BookingID), nil
		}
		return data.AccountID, "Payment failed",
			fmt.Sprintf("Your payment of %s for booking %s was declined: %s", amount, data.BookingID, data.FailureReason), nil
	case events.ReviewModerated:
		var data events.ReviewModeratedEvent
		if err := event.Decode(&data); err != nil {
			return "", "", "", err
		}
		return data.AccountID, "Review " + data.Status,
			fmt.Sprintf("Your review %s was %s.", data.ReviewID, data.Status), nil
	case events.DisputeResolved:
		var data events.DisputeEvent
		if err := event.Decode(&data); err != nil {
			return "", "", "", err
		}
		return data.AccountID, "Dispute resolved",
			fmt.Sprintf("Your dispute %s has been resolved.", data.DisputeID), nil
	}
	return "", "", "", nil
}
