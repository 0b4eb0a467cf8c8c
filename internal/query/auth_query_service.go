package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
)

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(accountID string, role models.Role) (string, time.Time, error)
	Validate(token string) (*auth.Identity, error)
}

// AuthQueryService handles login and token refresh. There's no command
// service for auth because these operations don't mutate application state.
type AuthQueryService struct {
	accounts *repository.AccountRepository
	hasher   auth.Hasher
	tokens   TokenIssuer

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthQueryService(accounts *repository.AccountRepository, hasher auth.Hasher, tokens TokenIssuer) *AuthQueryService {
	return &AuthQueryService{accounts: accounts, hasher: hasher, tokens: tokens}
}

// Login never says whether the username or the password was wrong.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.Session, error) {
	account, err := s.authenticate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return s.session(account)
}

// AdminLogin rejects valid non-admin credentials the same way as bad ones.
func (s *AuthQueryService) AdminLogin(ctx context.Context, cmd cqrs.LoginCommand) (*models.Session, error) {
	account, err := s.authenticate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !account.Role.IsAdmin() {
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.session(account)
}

// RefreshToken re-reads the account so a role change since the last login is
// reflected in the new token.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*models.Session, error) {
	identity, err := s.tokens.Validate(cmd.Token)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, identity.AccountID)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return s.session(account)
}

func (s *AuthQueryService) authenticate(ctx context.Context, cmd cqrs.LoginCommand) (*models.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, utils.NormalizeUsername(cmd.Username))
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		// Spend the same hashing work as a real account so timing does not
		// reveal which usernames exist.
		s.hasher.Verify(cmd.Password, s.decoy())
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(cmd.Password, account.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return account, nil
}

// decoy is a hash at the hasher's cost that no login password matches.
func (s *AuthQueryService) decoy() string {
	s.decoyOnce.Do(func() {
		if hash, err := s.hasher.Hash(utils.GenerateID("decoy")); err == nil {
			s.decoyHash = hash
		}
	})
	return s.decoyHash
}

func (s *AuthQueryService) session(account *models.Account) (*models.Session, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   models.AccountToView(account),
	}, nil
}
