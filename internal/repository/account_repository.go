package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/servicehub/marketplace/internal/database"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
)

// AccountRepository is the credential store. Usernames arrive already normalised.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	taken, err := r.identityTaken(ctx, account.Username, account.Email)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.ErrDuplicateIdentity
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) identityTaken(ctx context.Context, username string, email *string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{}).Where("username = ?", username)
	if email != nil {
		q = q.Or("email = ?", *email)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check identity: %w", err)
	}
	return count > 0, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *AccountRepository) first(ctx context.Context, cond string, arg any) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where(cond, arg).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// UpdatePasswordHash is the only write path for the hash.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *AccountRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	return r.update(ctx, id, "role", role)
}

func (r *AccountRepository) update(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update account %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// List matches search case-insensitively against username and email.
func (r *AccountRepository) List(ctx context.Context, search string) ([]models.Account, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}
	var accounts []models.Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
