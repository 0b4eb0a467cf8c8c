package repository

import (
	"context"
	"fmt"

	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
)

type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats runs every aggregate inside one read transaction so the counts agree.
func (r *DashboardRepository) Stats(ctx context.Context) (*models.DashboardView, error) {
	var view models.DashboardView
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counts := []struct {
			dst   *int64
			model any
			where []any
		}{
			{&view.TotalUsers, &models.Account{}, nil},
			{&view.ActiveUsers, &models.Account{}, []any{"role = ?", models.RoleCustomer}},
			{&view.TotalServices, &models.Service{}, nil},
			{&view.TotalBookings, &models.Booking{}, nil},
			{&view.PendingReviews, &models.Review{}, []any{"status = ?", models.ReviewStatusPending}},
		}
		for _, c := range counts {
			q := tx.Model(c.model)
			if c.where != nil {
				q = q.Where(c.where[0], c.where[1:]...)
			}
			if err := q.Count(c.dst).Error; err != nil {
				return fmt.Errorf("failed to count %T: %w", c.model, err)
			}
		}
		return tx.Model(&models.Transaction{}).
			Where("status = ?", models.TransactionStatusSuccess).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&view.TotalRevenue).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return &view, nil
}
