package models

import "time"

const (
	ReadingStatusRead       = "Read"
	ReadingStatusReading    = "Reading"
	ReadingStatusWantToRead = "Want-to-Read"
)

type Book struct {
	ID            int        `json:"id"`
	UserEmail     string     `json:"user_email"`
	UserName      string     `json:"user_name,omitempty"`
	BookTitle     string     `json:"book_title"`
	CoverPhoto    string     `json:"cover_photo,omitempty"`
	TotalPage     int        `json:"total_page"`
	BookAuthor    string     `json:"book_author"`
	BookCategory  string     `json:"book_category"`
	ReadingStatus string     `json:"reading_status"`
	BookOverview  string     `json:"book_overview,omitempty"`
	Upvote        int        `json:"upvote"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// CategoryCount is one row of the per-category book counts aggregate.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type UpdateReadingStatusRequest struct {
	ReadingStatus string `json:"reading_status"`
}
