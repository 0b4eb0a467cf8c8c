package repository

import (
	"context"

	"github.com/servicehub/marketplace/shared/models"
	sharedredis "github.com/servicehub/marketplace/shared/redis"
)

const accountViewKeyPrefix = "account:view:"

// AccountReadRepository serves admin account lookups from Redis, falling back
// to the credential store on a miss.
type AccountReadRepository struct {
	accounts *AccountRepository
	cache    sharedredis.Cache[models.AccountView]
}

func NewAccountReadRepository(accounts *AccountRepository, cache sharedredis.Cache[models.AccountView]) *AccountReadRepository {
	return &AccountReadRepository{accounts: accounts, cache: cache}
}

func (r *AccountReadRepository) GetByID(ctx context.Context, id string) (*models.AccountView, error) {
	if view, ok := r.cache.Get(ctx, accountViewKeyPrefix+id); ok {
		return view, nil
	}
	account, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.AccountToView(account)
	r.CacheAccountView(ctx, &view)
	return &view, nil
}

func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Set(ctx, accountViewKeyPrefix+view.ID, view)
}

func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, id string) {
	r.cache.Delete(ctx, accountViewKeyPrefix+id)
}
