package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/events"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
	"go.uber.org/zap"
)

// ReviewCommandService handles submission and moderation. Moderation is
// first-wins: once a review is approved or rejected, any later approve or
// reject succeeds without changing it.
type ReviewCommandService struct {
	reviews   *repository.ReviewRepository
	services  *repository.ServiceRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewReviewCommandService(
	reviews *repository.ReviewRepository,
	services *repository.ServiceRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *ReviewCommandService {
	return &ReviewCommandService{
		reviews:   reviews,
		services:  services,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *ReviewCommandService) SubmitReview(ctx context.Context, cmd cqrs.SubmitReviewCommand) (*models.Review, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: review content must not be empty", apperrors.ErrValidation)
	}
	if cmd.Rating != nil && (*cmd.Rating < 1 || *cmd.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrValidation)
	}
	if _, err := s.services.GetByID(ctx, cmd.ServiceID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &models.Review{
		ID:        utils.GenerateID(utils.PrefixReview),
		AccountID: cmd.AccountID,
		ServiceID: cmd.ServiceID,
		Content:   content,
		Rating:    cmd.Rating,
		Status:    models.ReviewStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	publish(ctx, s.logger, s.publisher, events.ReviewEventsStream, events.ReviewSubmitted, events.ReviewSubmittedEvent{
		ReviewID:  review.ID,
		AccountID: review.AccountID,
		ServiceID: review.ServiceID,
	})
	return review, nil
}

func (s *ReviewCommandService) ApproveReview(ctx context.Context, cmd cqrs.ModerateReviewCommand) (*models.Review, error) {
	return s.moderate(ctx, cmd, models.ReviewStatusApproved)
}

func (s *ReviewCommandService) RejectReview(ctx context.Context, cmd cqrs.ModerateReviewCommand) (*models.Review, error) {
	return s.moderate(ctx, cmd, models.ReviewStatusRejected)
}

func (s *ReviewCommandService) moderate(ctx context.Context, cmd cqrs.ModerateReviewCommand, target models.ReviewStatus) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, cmd.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.Status != models.ReviewStatusPending {
		return review, nil
	}

	ok, err := s.reviews.CompareAndSetStatus(ctx, review, target, cmd.ModeratorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.reviews.GetByID(ctx, cmd.ReviewID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.ReviewStatusPending {
			return nil, apperrors.ErrConcurrentUpdate
		}
		return current, nil
	}

	s.logger.Info("review moderated",
		zap.String("reviewId", review.ID),
		zap.String("status", string(target)),
		zap.String("moderatorId", cmd.ModeratorID),
	)
	publish(ctx, s.logger, s.publisher, events.ReviewEventsStream, events.ReviewModerated, events.ReviewModeratedEvent{
		ReviewID:    review.ID,
		AccountID:   review.AccountID,
		Status:      string(target),
		ModeratedBy: cmd.ModeratorID,
	})
	return review, nil
}

func (s *ReviewCommandService) DeleteReview(ctx context.Context, cmd cqrs.DeleteReviewCommand) error {
	if err := s.reviews.Delete(ctx, cmd.ReviewID); err != nil {
		return err
	}
	s.logger.Info("review deleted", zap.String("reviewId", cmd.ReviewID))
	return nil
}
