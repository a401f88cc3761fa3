package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/services"
	"bookshelfBack/utils"
)

const maxCoverSize = 10 << 20 // 10 MB

type BookHandler struct {
	Service *services.BookService
	Access  *services.AccessService
	Storage *utils.S3Storage
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// The owner is always the verified identity, whatever the body claims.
	book.UserEmail = tokenEmail(r)

	createdBook, err := h.Service.CreateBook(r.Context(), book)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createdBook)
}

func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Service.GetBooks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BookHandler) GetTopBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Service.GetTopBooks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BookHandler) GetRecentBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Service.GetRecentBooks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BookHandler) GetBooksByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get(":category")
	if category == "" {
		category = r.URL.Query().Get("category")
	}

	books, err := h.Service.GetBooksByCategory(r.Context(), category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BookHandler) GetCategoryCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.GetCategoryCounts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

// GetBooksByEmail returns a user's own shelf.
func (h *BookHandler) GetBooksByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "Missing email", http.StatusBadRequest)
		return
	}
	if err := h.Access.RequireSelf(tokenEmail(r), email); err != nil {
		http.Error(w, "Forbidden Access", http.StatusForbidden)
		return
	}

	books, err := h.Service.GetBooksByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BookHandler) GetBookByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	book, err := h.Service.GetBookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

// requireOwner loads the book and checks the requester owns it (admins pass).
func (h *BookHandler) requireOwner(w http.ResponseWriter, r *http.Request, id int) (models.Book, bool) {
	book, err := h.Service.GetBookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return models.Book{}, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return models.Book{}, false
	}
	if err := h.Access.RequireSelfOrAdmin(r.Context(), tokenEmail(r), book.UserEmail); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			http.Error(w, "Forbidden Access", http.StatusForbidden)
			return models.Book{}, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return models.Book{}, false
	}
	return book, true
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}
	if _, ok := h.requireOwner(w, r, id); !ok {
		return
	}

	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	book.ID = id

	updatedBook, err := h.Service.UpdateBook(r.Context(), book)
	if err != nil {
		if errors.Is(err, models.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updatedBook)
}

func (h *BookHandler) UpdateReadingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}
	if _, ok := h.requireOwner(w, r, id); !ok {
		return
	}

	var req models.UpdateReadingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateReadingStatus(r.Context(), id, req.ReadingStatus); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"id": id, "reading_status": req.ReadingStatus})
}

func (h *BookHandler) UpvoteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	upvote, err := h.Service.UpvoteBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"id": id, "upvote": upvote})
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}
	if _, ok := h.requireOwner(w, r, id); !ok {
		return
	}

	if err := h.Service.DeleteBook(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadCover stores a cover image and returns its public URL.
func (h *BookHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		http.Error(w, "Cover storage not configured", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		http.Error(w, "Missing cover file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		http.Error(w, "Cover must be an image", http.StatusBadRequest)
		return
	}

	fileName := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(header.Filename))
	coverURL, err := h.Storage.UploadFile(data, fileName, "covers", contentType)
	if err != nil {
		http.Error(w, "upload cover: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": coverURL})
}
