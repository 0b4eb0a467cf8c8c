package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
)

type DisputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	if err := r.db.WithContext(ctx).Create(dispute).Error; err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	return &dispute, nil
}

func (r *DisputeRepository) List(ctx context.Context, status models.DisputeStatus) ([]models.Dispute, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var disputes []models.Dispute
	if err := q.Find(&disputes).Error; err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	return disputes, nil
}

func (r *DisputeRepository) CompareAndSetStatus(ctx context.Context, dispute *models.Dispute, status models.DisputeStatus) (bool, error) {
	ok, err := compareAndSet(ctx, r.db, &models.Dispute{}, dispute.ID, dispute.Version, map[string]any{
		"status": status,
	})
	if err != nil || !ok {
		return ok, err
	}
	dispute.Status = status
	dispute.Version++
	return true, nil
}
