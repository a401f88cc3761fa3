package services

import (
	"context"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/repositories"
)

type RatingService struct {
	RatingRepo *repositories.RatingRepository
}

func (s *RatingService) CreateRating(ctx context.Context, rating models.Rating) (models.Rating, error) {
	return s.RatingRepo.CreateRating(ctx, rating)
}

func (s *RatingService) GetRatings(ctx context.Context) ([]models.Rating, error) {
	return s.RatingRepo.GetRatings(ctx)
}

func (s *RatingService) GetRatingsByBookID(ctx context.Context, bookID int) ([]models.Rating, error) {
	return s.RatingRepo.GetRatingsByBookID(ctx, bookID)
}

func (s *RatingService) GetRatingByID(ctx context.Context, id int) (models.Rating, error) {
	return s.RatingRepo.GetRatingByID(ctx, id)
}

func (s *RatingService) UpdateReview(ctx context.Context, id int, review string) (models.Rating, error) {
	return s.RatingRepo.UpdateReview(ctx, id, review)
}

func (s *RatingService) DeleteRating(ctx context.Context, id int) error {
	return s.RatingRepo.DeleteRating(ctx, id)
}
