package repositories

import (
	"context"
	"database/sql"
	"time"

	"bookshelfBack/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
        INSERT INTO users (name, email, photo_url, phone, location, bio, website, favorite_genre, reading_goal,
                           role, subscription_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.SubscriptionStatus == "" {
		user.SubscriptionStatus = models.SubscriptionStatusNone
	}
	user.CreatedAt = time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PhotoURL, user.Phone, user.Location, user.Bio, user.Website,
		user.FavoriteGenre, user.ReadingGoal, user.Role, user.SubscriptionStatus, user.CreatedAt,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return models.User{}, models.ErrDuplicateEmail
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := `
        SELECT id, name, email, photo_url, phone, location, bio, website, favorite_genre, reading_goal,
               role, subscription_type, subscription_status, subscription_date, books_added, created_at, updated_at
        FROM users
        WHERE email = $1
    `
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PhotoURL, &user.Phone, &user.Location, &user.Bio,
		&user.Website, &user.FavoriteGenre, &user.ReadingGoal, &user.Role, &user.SubscriptionType,
		&user.SubscriptionStatus, &user.SubscriptionDate, &user.BooksAdded, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	query := `
        SELECT id, name, email, photo_url, phone, location, bio, website, favorite_genre, reading_goal,
               role, subscription_type, subscription_status, subscription_date, books_added, created_at, updated_at
        FROM users
        ORDER BY created_at DESC
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		err = rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.PhotoURL, &user.Phone, &user.Location, &user.Bio,
			&user.Website, &user.FavoriteGenre, &user.ReadingGoal, &user.Role, &user.SubscriptionType,
			&user.SubscriptionStatus, &user.SubscriptionDate, &user.BooksAdded, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (models.User, error) {
	query := `
        UPDATE users
        SET name = $1, photo_url = $2, phone = $3, location = $4, bio = $5, website = $6,
            favorite_genre = $7, reading_goal = $8, updated_at = $9
        WHERE email = $10
    `
	result, err := r.DB.ExecContext(ctx, query,
		req.Name, req.PhotoURL, req.Phone, req.Location, req.Bio, req.Website,
		req.FavoriteGenre, req.ReadingGoal, time.Now(), email,
	)
	if err != nil {
		return models.User{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if rowsAffected == 0 {
		return models.User{}, models.ErrUserNotFound
	}
	return r.GetUserByEmail(ctx, email)
}

func (r *UserRepository) UpdateRole(ctx context.Context, email, role string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE email = $3`, role, time.Now(), email)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ApplySubscription activates the paid tier on the identity owning a
// reconciled payment.
func (r *UserRepository) ApplySubscription(ctx context.Context, email, subscriptionType string, booksAdded int, at time.Time) error {
	result, err := r.DB.ExecContext(ctx, `
        UPDATE users
        SET subscription_type = $1, subscription_status = $2, subscription_date = $3,
            books_added = $4, updated_at = $5
        WHERE email = $6
    `, subscriptionType, models.SubscriptionStatusActive, at, booksAdded, at, email)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
