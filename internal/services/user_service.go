package services

import (
	"context"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/repositories"
)

type UserService struct {
	UserRepo *repositories.UserRepository
}

// RegisterUser records an identity on first registration or first federated
// login. Role always defaults to user; there is no way to self-assign admin.
func (s *UserService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	user.Role = models.RoleUser
	user.SubscriptionStatus = models.SubscriptionStatusNone
	return s.UserRepo.CreateUser(ctx, user)
}

func (s *UserService) UserExists(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	return s.UserRepo.EmailExists(ctx, email)
}

func (s *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	return s.UserRepo.GetUsers(ctx)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.UserRepo.GetUserByEmail(ctx, email)
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (models.User, error) {
	return s.UserRepo.UpdateProfile(ctx, email, req)
}

func (s *UserService) UpdateRole(ctx context.Context, email, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.ErrInvalidRole
	}
	return s.UserRepo.UpdateRole(ctx, email, role)
}
