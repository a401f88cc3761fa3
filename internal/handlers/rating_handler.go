package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/services"
)

type RatingHandler struct {
	Service *services.RatingService
	Access  *services.AccessService
}

func (h *RatingHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	var rating models.Rating
	if err := json.NewDecoder(r.Body).Decode(&rating); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	rating.UserEmail = tokenEmail(r)

	createdRating, err := h.Service.CreateRating(r.Context(), rating)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createdRating)
}

func (h *RatingHandler) GetRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.Service.GetRatings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ratings)
}

func (h *RatingHandler) GetRatingsByBookID(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "book_id")
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	ratings, err := h.Service.GetRatingsByBookID(r.Context(), bookID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ratings)
}

// requireAuthor checks the requester wrote the rating (admins pass for delete
// moderation).
func (h *RatingHandler) requireAuthor(w http.ResponseWriter, r *http.Request, id int, adminOverride bool) bool {
	rating, err := h.Service.GetRatingByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRatingNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	if adminOverride {
		err = h.Access.RequireSelfOrAdmin(r.Context(), tokenEmail(r), rating.UserEmail)
	} else {
		err = h.Access.RequireSelf(tokenEmail(r), rating.UserEmail)
	}
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			http.Error(w, "Forbidden Access", http.StatusForbidden)
			return false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *RatingHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid rating ID", http.StatusBadRequest)
		return
	}
	if !h.requireAuthor(w, r, id, false) {
		return
	}

	var req models.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updatedRating, err := h.Service.UpdateReview(r.Context(), id, req.Review)
	if err != nil {
		if errors.Is(err, models.ErrRatingNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updatedRating)
}

func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid rating ID", http.StatusBadRequest)
		return
	}
	if !h.requireAuthor(w, r, id, true) {
		return
	}

	if err := h.Service.DeleteRating(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
