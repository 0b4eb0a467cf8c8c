package query

import (
	"context"
	"fmt"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

type ReviewQueryService struct {
	reviews *repository.ReviewRepository
}

func NewReviewQueryService(reviews *repository.ReviewRepository) *ReviewQueryService {
	return &ReviewQueryService{reviews: reviews}
}

func (s *ReviewQueryService) GetReview(ctx context.Context, q cqrs.GetReviewQuery) (*models.Review, error) {
	return s.reviews.GetByID(ctx, q.ReviewID)
}

// ListReviews is the moderation queue view.
func (s *ReviewQueryService) ListReviews(ctx context.Context, q cqrs.ListReviewsQuery) ([]models.Review, error) {
	switch q.Status {
	case "", models.ReviewStatusPending, models.ReviewStatusApproved, models.ReviewStatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown review status %q", apperrors.ErrValidation, q.Status)
	}
	return s.reviews.List(ctx, q.Status)
}

// ListServiceReviews is the public view: only approved reviews are shown.
func (s *ReviewQueryService) ListServiceReviews(ctx context.Context, q cqrs.ListServiceReviewsQuery) ([]models.Review, error) {
	return s.reviews.ListByService(ctx, q.ServiceID, models.ReviewStatusApproved)
}
