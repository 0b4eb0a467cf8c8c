package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// compareAndSet applies updates only if the row still carries version, and
// bumps the version in the same statement. It reports false when another
// writer moved the row first.
func compareAndSet(ctx context.Context, db *gorm.DB, model any, id string, version int64, updates map[string]any) (bool, error) {
	updates["version"] = version + 1
	updates["updated_at"] = time.Now().UTC()

	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update %T: %w", model, res.Error)
	}
	return res.RowsAffected == 1, nil
}
