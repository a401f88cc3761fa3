package repositories

import (
	"context"
	"database/sql"
	"time"

	"bookshelfBack/internal/models"
)

type SubscriptionRepository struct {
	DB *sql.DB
}

const attemptColumns = `id, tran_id, val_id, cus_email, cus_name, cus_phone, amount, currency,
        product_name, product_category, books_added, status, created_at, updated_at`

func scanAttempt(row interface{ Scan(...any) error }) (models.SubscriptionAttempt, error) {
	var a models.SubscriptionAttempt
	err := row.Scan(
		&a.ID, &a.TranID, &a.ValID, &a.CusEmail, &a.CusName, &a.CusPhone, &a.Amount, &a.Currency,
		&a.ProductName, &a.ProductCategory, &a.BooksAdded, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *SubscriptionRepository) collectAttempts(rows *sql.Rows) ([]models.SubscriptionAttempt, error) {
	defer rows.Close()
	attempts := []models.SubscriptionAttempt{}
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func (r *SubscriptionRepository) CreateAttempt(ctx context.Context, attempt models.SubscriptionAttempt) (models.SubscriptionAttempt, error) {
	query := `
        INSERT INTO subscription_attempts (tran_id, val_id, cus_email, cus_name, cus_phone, amount,
                                           currency, product_name, product_category, books_added, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	if attempt.Status == "" {
		attempt.Status = models.AttemptStatusPending
	}
	attempt.CreatedAt = time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		attempt.TranID, attempt.ValID, attempt.CusEmail, attempt.CusName, attempt.CusPhone, attempt.Amount,
		attempt.Currency, attempt.ProductName, attempt.ProductCategory, attempt.BooksAdded,
		attempt.Status, attempt.CreatedAt,
	).Scan(&attempt.ID)
	if err != nil {
		return models.SubscriptionAttempt{}, err
	}
	return attempt, nil
}

func (r *SubscriptionRepository) GetAttemptByTranID(ctx context.Context, tranID string) (models.SubscriptionAttempt, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM subscription_attempts WHERE tran_id = $1`, tranID)
	attempt, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return models.SubscriptionAttempt{}, models.ErrAttemptNotFound
	}
	if err != nil {
		return models.SubscriptionAttempt{}, err
	}
	return attempt, nil
}

func (r *SubscriptionRepository) ListAttemptsByEmail(ctx context.Context, email string) ([]models.SubscriptionAttempt, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM subscription_attempts WHERE cus_email = $1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return r.collectAttempts(rows)
}

// MarkSuccess transitions an attempt to success only if it is still pending.
// Returns false when another notification already completed the transition, so
// a replayed IPN never applies the subscription benefit twice.
func (r *SubscriptionRepository) MarkSuccess(ctx context.Context, tranID, valID string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `
        UPDATE subscription_attempts
        SET status = $1, val_id = $2, updated_at = $3
        WHERE tran_id = $4 AND status = $5
    `, models.AttemptStatusSuccess, valID, time.Now(), tranID, models.AttemptStatusPending)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// MarkTerminal moves a still-pending attempt to cancelled or failed.
func (r *SubscriptionRepository) MarkTerminal(ctx context.Context, tranID, status string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `
        UPDATE subscription_attempts
        SET status = $1, updated_at = $2
        WHERE tran_id = $3 AND status = $4
    `, status, time.Now(), tranID, models.AttemptStatusPending)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// ListStalePending returns pending attempts created before the cutoff. The
// sweeper re-checks them against the gateway instead of trusting that an IPN
// will ever arrive.
func (r *SubscriptionRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.SubscriptionAttempt, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT `+attemptColumns+`
        FROM subscription_attempts
        WHERE status = $1 AND created_at < $2
        ORDER BY created_at
    `, models.AttemptStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	return r.collectAttempts(rows)
}

// ListUnappliedSuccess returns success attempts whose owner never received the
// benefit (the money moved but the identity update failed mid-flight).
func (r *SubscriptionRepository) ListUnappliedSuccess(ctx context.Context) ([]models.SubscriptionAttempt, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT a.id, a.tran_id, a.val_id, a.cus_email, a.cus_name, a.cus_phone, a.amount, a.currency,
               a.product_name, a.product_category, a.books_added, a.status, a.created_at, a.updated_at
        FROM subscription_attempts a
        JOIN users u ON u.email = a.cus_email
        WHERE a.status = $1 AND u.subscription_status <> $2
        ORDER BY a.created_at
    `, models.AttemptStatusSuccess, models.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	return r.collectAttempts(rows)
}
