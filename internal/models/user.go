package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	SubscriptionStatusNone   = "none"
	SubscriptionStatusActive = "active"
)

type User struct {
	ID                 int        `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PhotoURL           string     `json:"photo_url,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Location           string     `json:"location,omitempty"`
	Bio                string     `json:"bio,omitempty"`
	Website            string     `json:"website,omitempty"`
	FavoriteGenre      string     `json:"favorite_genre,omitempty"`
	ReadingGoal        int        `json:"reading_goal,omitempty"`
	Role               string     `json:"role"`
	SubscriptionType   string     `json:"subscription_type,omitempty"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionDate   *time.Time `json:"subscription_date,omitempty"`
	BooksAdded         int        `json:"books_added,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// UpdateProfileRequest carries the fields a user may change on their own profile.
type UpdateProfileRequest struct {
	Name          string `json:"name"`
	PhotoURL      string `json:"photo_url"`
	Phone         string `json:"phone"`
	Location      string `json:"location"`
	Bio           string `json:"bio"`
	Website       string `json:"website"`
	FavoriteGenre string `json:"favorite_genre"`
	ReadingGoal   int    `json:"reading_goal"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}
