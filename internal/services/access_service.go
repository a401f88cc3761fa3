package services

import (
	"context"
	"errors"

	"bookshelfBack/internal/models"
)

// UserGetter is the slice of the user repository the access policy needs.
type UserGetter interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// AccessService decides whether a verified identity may touch a resource.
// Policy failures are terminal for the request; nothing here retries.
type AccessService struct {
	Users UserGetter
}

// RequireSelf forbids access to another user's private resources even when
// the credential itself is valid.
func (s *AccessService) RequireSelf(tokenEmail, ownerEmail string) error {
	if tokenEmail == "" || tokenEmail != ownerEmail {
		return models.ErrForbidden
	}
	return nil
}

// RequireAdmin loads the requester's identity and forbids unless role=admin.
func (s *AccessService) RequireAdmin(ctx context.Context, tokenEmail string) error {
	if tokenEmail == "" {
		return models.ErrForbidden
	}
	user, err := s.Users.GetUserByEmail(ctx, tokenEmail)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.ErrForbidden
		}
		return err
	}
	if user.Role != models.RoleAdmin {
		return models.ErrForbidden
	}
	return nil
}

// RequireSelfOrAdmin grants owners access to their own records and admins
// access to everything.
func (s *AccessService) RequireSelfOrAdmin(ctx context.Context, tokenEmail, ownerEmail string) error {
	if s.RequireSelf(tokenEmail, ownerEmail) == nil {
		return nil
	}
	return s.RequireAdmin(ctx, tokenEmail)
}
