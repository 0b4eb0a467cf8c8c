package query

import (
	"context"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

// AccountQueryService serves account reads from the Redis projection, falling
// back to the database on a miss.
type AccountQueryService struct {
	accounts *repository.AccountRepository
	readRepo *repository.AccountReadRepository
}

func NewAccountQueryService(accounts *repository.AccountRepository, readRepo *repository.AccountReadRepository) *AccountQueryService {
	return &AccountQueryService{accounts: accounts, readRepo: readRepo}
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return s.readRepo.GetByID(ctx, q.AccountID)
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	accounts, err := s.accounts.List(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, models.AccountToView(&accounts[i]))
	}
	return views, nil
}
