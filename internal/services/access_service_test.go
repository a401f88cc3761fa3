package services

import (
	"context"
	"errors"
	"testing"

	"bookshelfBack/internal/models"
)

type fakeUserGetter struct {
	users map[string]models.User
}

func (f *fakeUserGetter) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}

func newAccessForTest() *AccessService {
	return &AccessService{Users: &fakeUserGetter{users: map[string]models.User{
		"admin@example.com": {Email: "admin@example.com", Role: models.RoleAdmin},
		"a@example.com":     {Email: "a@example.com", Role: models.RoleUser},
		"b@example.com":     {Email: "b@example.com", Role: models.RoleUser},
	}}}
}

func TestRequireSelf(t *testing.T) {
	access := newAccessForTest()

	if err := access.RequireSelf("a@example.com", "a@example.com"); err != nil {
		t.Errorf("self access denied: %v", err)
	}
	if err := access.RequireSelf("a@example.com", "b@example.com"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("cross-user access: err = %v, want ErrForbidden", err)
	}
	if err := access.RequireSelf("", "a@example.com"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("empty token email: err = %v, want ErrForbidden", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	access := newAccessForTest()
	ctx := context.Background()

	if err := access.RequireAdmin(ctx, "admin@example.com"); err != nil {
		t.Errorf("admin denied: %v", err)
	}
	if err := access.RequireAdmin(ctx, "a@example.com"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("regular user: err = %v, want ErrForbidden", err)
	}
	// A verified token for an email with no account gets forbidden, not a
	// lookup error.
	if err := access.RequireAdmin(ctx, "ghost@example.com"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("unknown user: err = %v, want ErrForbidden", err)
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	access := newAccessForTest()
	ctx := context.Background()

	if err := access.RequireSelfOrAdmin(ctx, "a@example.com", "a@example.com"); err != nil {
		t.Errorf("owner denied: %v", err)
	}
	if err := access.RequireSelfOrAdmin(ctx, "admin@example.com", "a@example.com"); err != nil {
		t.Errorf("admin override denied: %v", err)
	}
	if err := access.RequireSelfOrAdmin(ctx, "b@example.com", "a@example.com"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("cross-user access: err = %v, want ErrForbidden", err)
	}
}
