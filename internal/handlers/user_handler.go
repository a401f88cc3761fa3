package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/services"
)

type UserHandler struct {
	Service *services.UserService
	Access  *services.AccessService
}

// Register stores an identity on first registration or first federated login.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if user.Email == "" {
		http.Error(w, "Missing email", http.StatusBadRequest)
		return
	}

	createdUser, err := h.Service.RegisterUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createdUser)
}

func (h *UserHandler) Exists(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	exists, err := h.Service.UserExists(r.Context(), email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
}

// GetUsers lists every account. Admin only: the listing exposes subscription
// state for all users.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.Access.RequireAdmin(r.Context(), tokenEmail(r)); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			http.Error(w, "Forbidden Access: Admin only", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	users, err := h.Service.GetUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(":email")
	if email == "" {
		http.Error(w, "Missing email", http.StatusBadRequest)
		return
	}
	if err := h.Access.RequireSelf(tokenEmail(r), email); err != nil {
		http.Error(w, "Forbidden Access", http.StatusForbidden)
		return
	}

	user, err := h.Service.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(":email")
	if email == "" {
		http.Error(w, "Missing email", http.StatusBadRequest)
		return
	}
	if err := h.Access.RequireSelf(tokenEmail(r), email); err != nil {
		http.Error(w, "Forbidden Access", http.StatusForbidden)
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updatedUser, err := h.Service.UpdateProfile(r.Context(), email, req)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updatedUser)
}

// UpdateRole changes a user's role. Admin only.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(":email")
	if email == "" {
		http.Error(w, "Missing email", http.StatusBadRequest)
		return
	}
	if err := h.Access.RequireAdmin(r.Context(), tokenEmail(r)); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			http.Error(w, "Forbidden Access: Admin only", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req models.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateRole(r.Context(), email, req.Role); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidRole):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"email": email, "role": req.Role})
}
