package repositories

import (
	"context"
	"database/sql"
	"time"

	"bookshelfBack/internal/models"
)

type BookRepository struct {
	DB *sql.DB
}

const bookColumns = `id, user_email, user_name, book_title, cover_photo, total_page, book_author,
        book_category, reading_status, book_overview, upvote, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (models.Book, error) {
	var book models.Book
	err := row.Scan(
		&book.ID, &book.UserEmail, &book.UserName, &book.BookTitle, &book.CoverPhoto, &book.TotalPage,
		&book.BookAuthor, &book.BookCategory, &book.ReadingStatus, &book.BookOverview, &book.Upvote,
		&book.CreatedAt, &book.UpdatedAt,
	)
	return book, err
}

func (r *BookRepository) collectBooks(rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()
	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (r *BookRepository) CreateBook(ctx context.Context, book models.Book) (models.Book, error) {
	query := `
        INSERT INTO books (user_email, user_name, book_title, cover_photo, total_page, book_author,
                           book_category, reading_status, book_overview, upvote, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	book.CreatedAt = time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		book.UserEmail, book.UserName, book.BookTitle, book.CoverPhoto, book.TotalPage, book.BookAuthor,
		book.BookCategory, book.ReadingStatus, book.BookOverview, book.Upvote, book.CreatedAt,
	).Scan(&book.ID)
	if err != nil {
		return models.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) GetBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

func (r *BookRepository) GetTopBooks(ctx context.Context, limit int) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY upvote DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

func (r *BookRepository) GetRecentBooks(ctx context.Context, limit int) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

func (r *BookRepository) GetBooksByCategory(ctx context.Context, category string) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE book_category = $1 ORDER BY created_at DESC`, category)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

func (r *BookRepository) GetCategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT book_category, COUNT(*)
        FROM books
        GROUP BY book_category
        ORDER BY COUNT(*) DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *BookRepository) GetBooksByEmail(ctx context.Context, email string) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_email = $1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

func (r *BookRepository) GetBookByID(ctx context.Context, id int) (models.Book, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return models.Book{}, models.ErrBookNotFound
	}
	if err != nil {
		return models.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) UpdateBook(ctx context.Context, book models.Book) (models.Book, error) {
	query := `
        UPDATE books
        SET book_title = $1, cover_photo = $2, total_page = $3, book_author = $4,
            book_category = $5, reading_status = $6, book_overview = $7, updated_at = $8
        WHERE id = $9
    `
	result, err := r.DB.ExecContext(ctx, query,
		book.BookTitle, book.CoverPhoto, book.TotalPage, book.BookAuthor,
		book.BookCategory, book.ReadingStatus, book.BookOverview, time.Now(), book.ID,
	)
	if err != nil {
		return models.Book{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.Book{}, err
	}
	if rowsAffected == 0 {
		return models.Book{}, models.ErrBookNotFound
	}
	return r.GetBookByID(ctx, book.ID)
}

func (r *BookRepository) UpdateReadingStatus(ctx context.Context, id int, status string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE books SET reading_status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) IncrementUpvote(ctx context.Context, id int) (int, error) {
	var upvote int
	err := r.DB.QueryRowContext(ctx,
		`UPDATE books SET upvote = upvote + 1, updated_at = $1 WHERE id = $2 RETURNING upvote`,
		time.Now(), id).Scan(&upvote)
	if err == sql.ErrNoRows {
		return 0, models.ErrBookNotFound
	}
	if err != nil {
		return 0, err
	}
	return upvote, nil
}

func (r *BookRepository) DeleteBook(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrBookNotFound
	}
	return nil
}
