package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
)

// ReviewCommander defines the write-side operations used by ReviewHandler.
type ReviewCommander interface {
	SubmitReview(context.Context, cqrs.SubmitReviewCommand) (*models.Review, error)
	ApproveReview(context.Context, cqrs.ModerateReviewCommand) (*models.Review, error)
	RejectReview(context.Context, cqrs.ModerateReviewCommand) (*models.Review, error)
	DeleteReview(context.Context, cqrs.DeleteReviewCommand) error
}

// ReviewQuerier defines the read-side operations used by ReviewHandler.
type ReviewQuerier interface {
	GetReview(context.Context, cqrs.GetReviewQuery) (*models.Review, error)
	ListReviews(context.Context, cqrs.ListReviewsQuery) ([]models.Review, error)
	ListServiceReviews(context.Context, cqrs.ListServiceReviewsQuery) ([]models.Review, error)
}

type ReviewHandler struct {
	commands ReviewCommander
	queries  ReviewQuerier
}

// SubmitReviewRequest leaves blank-content checks to the command service so
// the same error is returned whatever the transport.
type SubmitReviewRequest struct {
	ServiceID string `json:"serviceId" validate:"required"`
	Content   string `json:"content" validate:"max=5000"`
	Rating    *int   `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

type ListReviewsResponse struct {
	Reviews []models.Review `json:"reviews"`
}

func NewReviewHandler(commands ReviewCommander, queries ReviewQuerier) *ReviewHandler {
	return &ReviewHandler{commands: commands, queries: queries}
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	var req SubmitReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.commands.SubmitReview(c.Request.Context(), cqrs.SubmitReviewCommand{
		AccountID: identity.AccountID,
		ServiceID: req.ServiceID,
		Content:   req.Content,
		Rating:    req.Rating,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.queries.ListReviews(c.Request.Context(), cqrs.ListReviewsQuery{Status: models.ReviewStatus(c.Query("status"))})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListReviewsResponse{Reviews: reviews})
}

func (h *ReviewHandler) ListServiceReviews(c *gin.Context) {
	reviews, err := h.queries.ListServiceReviews(c.Request.Context(), cqrs.ListServiceReviewsQuery{ServiceID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListReviewsResponse{Reviews: reviews})
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.queries.GetReview(c.Request.Context(), cqrs.GetReviewQuery{ReviewID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) ApproveReview(c *gin.Context) {
	h.moderate(c, h.commands.ApproveReview)
}

func (h *ReviewHandler) RejectReview(c *gin.Context) {
	h.moderate(c, h.commands.RejectReview)
}

func (h *ReviewHandler) moderate(c *gin.Context, fn func(context.Context, cqrs.ModerateReviewCommand) (*models.Review, error)) {
	identity := middleware.MustIdentity(c)
	review, err := fn(c.Request.Context(), cqrs.ModerateReviewCommand{
		ReviewID:    c.Param("id"),
		ModeratorID: identity.AccountID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	if err := h.commands.DeleteReview(c.Request.Context(), cqrs.DeleteReviewCommand{ReviewID: c.Param("id")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
