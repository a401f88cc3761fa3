package models

import (
	"errors"
)

var (
	ErrUnauthenticated     = errors.New("models: unauthenticated")
	ErrForbidden           = errors.New("models: forbidden")
	ErrGatewayUnavailable  = errors.New("models: payment gateway unavailable")
	ErrInvalidNotification = errors.New("models: invalid payment notification")
	ErrUnknownTransaction  = errors.New("models: unknown transaction")
	ErrUserNotFound        = errors.New("models: user not found")
	ErrBookNotFound        = errors.New("models: book not found")
	ErrRatingNotFound      = errors.New("models: rating not found")
	ErrAttemptNotFound     = errors.New("models: subscription attempt not found")
	ErrDuplicateEmail      = errors.New("models: duplicate email")
	ErrInvalidRole         = errors.New("models: invalid role")
)
