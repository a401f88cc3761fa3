package models

import "time"

type Rating struct {
	ID        int        `json:"id"`
	BookID    int        `json:"book_id"`
	UserEmail string     `json:"user_email"`
	UserName  string     `json:"user_name,omitempty"`
	UserPhoto string     `json:"user_photo,omitempty"`
	Rating    int        `json:"rating"`
	Review    string     `json:"review"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type UpdateReviewRequest struct {
	Review string `json:"review"`
}
