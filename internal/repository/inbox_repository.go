package repository

import (
	"context"
	"fmt"

	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository stores in-app notifications projected from events.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create reports false when a notification for the same event already exists.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create notification: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

type SupportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to create support ticket: %w", err)
	}
	return nil
}

func (r *SupportRepository) List(ctx context.Context) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list support tickets: %w", err)
	}
	return tickets, nil
}
