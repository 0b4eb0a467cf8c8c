package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"go.uber.org/zap"
)

// AccountCommandService owns every write to the credential store.
type AccountCommandService struct {
	accounts *repository.AccountRepository
	readRepo *repository.AccountReadRepository
	hasher   auth.Hasher
	logger   *zap.Logger
}

func NewAccountCommandService(
	accounts *repository.AccountRepository,
	readRepo *repository.AccountReadRepository,
	hasher auth.Hasher,
	logger *zap.Logger,
) *AccountCommandService {
	return &AccountCommandService{
		accounts: accounts,
		readRepo: readRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

// Register creates a customer or provider. Usernames are case-insensitive:
// "Alice" and "alice" are the same identity.
func (s *AccountCommandService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (*models.Account, error) {
	role := cmd.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleProvider {
		return nil, fmt.Errorf("%w: self-registration is limited to customer and provider", apperrors.ErrInvalidRole)
	}
	account, err := s.create(ctx, cmd.Username, cmd.Email, cmd.Password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("accountId", account.ID), zap.String("role", string(role)))
	return account, nil
}

// CreateAdmin is the super-admin path for provisioning moderators.
func (s *AccountCommandService) CreateAdmin(ctx context.Context, cmd cqrs.CreateAdminCommand) (*models.Account, error) {
	account, err := s.create(ctx, cmd.Username, cmd.Email, cmd.Password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin account created", zap.String("accountId", account.ID))
	return account, nil
}

// EnsureSuperAdmin creates the bootstrap super admin unless the username is taken.
func (s *AccountCommandService) EnsureSuperAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.accounts.GetByUsername(ctx, utils.NormalizeUsername(username))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrAccountNotFound) {
		return false, err
	}
	account, err := s.create(ctx, username, "", password, models.RoleSuperAdmin)
	if errors.Is(err, apperrors.ErrDuplicateIdentity) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap super admin created", zap.String("accountId", account.ID))
	return true, nil
}

func (s *AccountCommandService) create(ctx context.Context, username, email, password string, role models.Role) (*models.Account, error) {
	username = utils.NormalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account := &models.Account{
		ID:           utils.GenerateID(utils.PrefixAccount),
		Username:     username,
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountCommandService) ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error {
	if cmd.NewPassword == "" {
		return fmt.Errorf("%w: new password is required", apperrors.ErrValidation)
	}
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(cmd.CurrentPassword, account.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(cmd.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("accountId", account.ID))
	return nil
}

func (s *AccountCommandService) UpdateRole(ctx context.Context, cmd cqrs.UpdateRoleCommand) (*models.AccountView, error) {
	if !cmd.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	if err := s.accounts.UpdateRole(ctx, cmd.AccountID, cmd.Role); err != nil {
		return nil, err
	}
	s.readRepo.InvalidateAccountView(ctx, cmd.AccountID)
	s.logger.Info("account role updated", zap.String("accountId", cmd.AccountID), zap.String("role", string(cmd.Role)))
	return s.readRepo.GetByID(ctx, cmd.AccountID)
}

func normalizeEmail(email string) *string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	return &email
}
