package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/access"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/repo"
)

type ReviewPatch struct {
	Rating  *int
	Comment *string
}

type ReviewService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *ReviewService) List(ctx context.Context, productID uint, page pagination.Page) (int64, []models.Review, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return 0, nil, mapRepoError(err, ErrProductNotFound)
	}
	return s.Repo.ListReviews(ctx, productID, page)
}

func (s *ReviewService) Create(ctx context.Context, caller *access.Caller, productID uint, rating int, comment string) (*models.Review, error) {
	if err := authorize(caller, access.Reviews, access.Create, uuid.Nil); err != nil {
		return nil, err
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, mapRepoError(err, ErrProductNotFound)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    caller.UserID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.Repo.CreateReview(ctx, review); err != nil {
		return nil, mapRepoError(err, ErrProductNotFound)
	}

	s.publish(ctx, "review_created", review)
	return review, nil
}

func (s *ReviewService) Patch(ctx context.Context, caller *access.Caller, id uint, patch ReviewPatch) (*models.Review, error) {
	if caller == nil {
		return nil, authorize(nil, access.Reviews, access.Update, uuid.Nil)
	}

	review, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrReviewNotFound)
	}
	if err := authorize(caller, access.Reviews, access.Update, review.UserID); err != nil {
		return nil, err
	}

	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return nil, err
		}
		review.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		review.Comment = *patch.Comment
	}

	if err := s.Repo.SaveReview(ctx, review); err != nil {
		return nil, mapRepoError(err, ErrReviewNotFound)
	}

	s.publish(ctx, "review_updated", review)
	return review, nil
}

// Delete is allowed for the author and for admins.
func (s *ReviewService) Delete(ctx context.Context, caller *access.Caller, id uint) error {
	if caller == nil {
		return authorize(nil, access.Reviews, access.Delete, uuid.Nil)
	}

	review, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return mapRepoError(err, ErrReviewNotFound)
	}
	if err := authorize(caller, access.Reviews, access.Delete, review.UserID); err != nil {
		return err
	}
	if err := s.Repo.DeleteReview(ctx, id); err != nil {
		return mapRepoError(err, ErrReviewNotFound)
	}

	s.publish(ctx, "review_deleted", review)
	return nil
}

func validateRating(r int) error {
	if r < 1 || r > 5 {
		return fieldErr("rating", "must be between 1 and 5")
	}
	return nil
}

func (s *ReviewService) publish(ctx context.Context, eventType string, r *models.Review) {
	publish(ctx, s.Events, events.TopicReviewEvents, strconv.FormatUint(uint64(r.ProductID), 10), eventType, map[string]any{
		"review_id":  r.ID,
		"product_id": r.ProductID,
		"user_id":    r.UserID,
		"rating":     r.Rating,
	})
}
