package query

import (
	"context"
	"fmt"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

// TransactionQueryService serves ledger reads. Ownership is checked before
// any row is returned.
type TransactionQueryService struct {
	transactions *repository.TransactionRepository
}

func NewTransactionQueryService(transactions *repository.TransactionRepository) *TransactionQueryService {
	return &TransactionQueryService{transactions: transactions}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.Transaction, error) {
	transaction, err := s.transactions.GetByID(ctx, q.TransactionID)
	if err != nil {
		return nil, err
	}
	if !q.Actor.CanActFor(transaction.AccountID) {
		return nil, fmt.Errorf("%w: transaction belongs to another account", apperrors.ErrForbidden)
	}
	return transaction, nil
}

func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.Transaction, error) {
	return s.transactions.ListByAccount(ctx, q.AccountID)
}
