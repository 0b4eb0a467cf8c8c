package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// List returns all reviews when status is empty.
func (r *ReviewRepository) List(ctx context.Context, status models.ReviewStatus) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reviews []models.Review
	if err := q.Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) ListByService(ctx context.Context, serviceID string, status models.ReviewStatus) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND status = ?", serviceID, status).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list service reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) CompareAndSetStatus(ctx context.Context, review *models.Review, status models.ReviewStatus, moderatorID string) (bool, error) {
	ok, err := compareAndSet(ctx, r.db, &models.Review{}, review.ID, review.Version, map[string]any{
		"status":       status,
		"moderated_by": moderatorID,
	})
	if err != nil || !ok {
		return ok, err
	}
	review.Status = status
	review.ModeratedBy = moderatorID
	review.Version++
	return true, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrReviewNotFound
	}
	return nil
}
