package repositories

import (
	"context"
	"database/sql"
	"time"

	"bookshelfBack/internal/models"
)

type RatingRepository struct {
	DB *sql.DB
}

const ratingColumns = `id, book_id, user_email, user_name, user_photo, rating, review, created_at, updated_at`

func scanRating(row interface{ Scan(...any) error }) (models.Rating, error) {
	var rating models.Rating
	err := row.Scan(
		&rating.ID, &rating.BookID, &rating.UserEmail, &rating.UserName, &rating.UserPhoto,
		&rating.Rating, &rating.Review, &rating.CreatedAt, &rating.UpdatedAt,
	)
	return rating, err
}

func (r *RatingRepository) collectRatings(rows *sql.Rows) ([]models.Rating, error) {
	defer rows.Close()
	ratings := []models.Rating{}
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *RatingRepository) CreateRating(ctx context.Context, rating models.Rating) (models.Rating, error) {
	query := `
        INSERT INTO ratings (book_id, user_email, user_name, user_photo, rating, review, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	rating.CreatedAt = time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		rating.BookID, rating.UserEmail, rating.UserName, rating.UserPhoto,
		rating.Rating, rating.Review, rating.CreatedAt,
	).Scan(&rating.ID)
	if err != nil {
		return models.Rating{}, err
	}
	return rating, nil
}

func (r *RatingRepository) GetRatings(ctx context.Context) ([]models.Rating, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+ratingColumns+` FROM ratings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return r.collectRatings(rows)
}

func (r *RatingRepository) GetRatingsByBookID(ctx context.Context, bookID int) ([]models.Rating, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE book_id = $1 ORDER BY created_at DESC`, bookID)
	if err != nil {
		return nil, err
	}
	return r.collectRatings(rows)
}

func (r *RatingRepository) GetRatingByID(ctx context.Context, id int) (models.Rating, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, id)
	rating, err := scanRating(row)
	if err == sql.ErrNoRows {
		return models.Rating{}, models.ErrRatingNotFound
	}
	if err != nil {
		return models.Rating{}, err
	}
	return rating, nil
}

func (r *RatingRepository) UpdateReview(ctx context.Context, id int, review string) (models.Rating, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE ratings SET review = $1, updated_at = $2 WHERE id = $3`, review, time.Now(), id)
	if err != nil {
		return models.Rating{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.Rating{}, err
	}
	if rowsAffected == 0 {
		return models.Rating{}, models.ErrRatingNotFound
	}
	return r.GetRatingByID(ctx, id)
}

func (r *RatingRepository) DeleteRating(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrRatingNotFound
	}
	return nil
}
