package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/repositories"
)

const (
	topBooksKey    = "books:top"
	recentBooksKey = "books:recent"
	bookCacheTTL   = 5 * time.Minute
	bookListLimit  = 5
)

// BookService wraps the book repository and keeps the two hot landing-page
// lists (top upvoted, newest) in Redis. The cache is best effort: any Redis
// problem falls through to the database.
type BookService struct {
	BookRepo *repositories.BookRepository
	Cache    *redis.Client
}

func (s *BookService) CreateBook(ctx context.Context, book models.Book) (models.Book, error) {
	created, err := s.BookRepo.CreateBook(ctx, book)
	if err != nil {
		return models.Book{}, err
	}
	s.invalidateLists(ctx)
	return created, nil
}

func (s *BookService) GetBooks(ctx context.Context) ([]models.Book, error) {
	return s.BookRepo.GetBooks(ctx)
}

func (s *BookService) GetTopBooks(ctx context.Context) ([]models.Book, error) {
	if books, ok := s.cachedList(ctx, topBooksKey); ok {
		return books, nil
	}
	books, err := s.BookRepo.GetTopBooks(ctx, bookListLimit)
	if err != nil {
		return nil, err
	}
	s.storeList(ctx, topBooksKey, books)
	return books, nil
}

func (s *BookService) GetRecentBooks(ctx context.Context) ([]models.Book, error) {
	if books, ok := s.cachedList(ctx, recentBooksKey); ok {
		return books, nil
	}
	books, err := s.BookRepo.GetRecentBooks(ctx, bookListLimit)
	if err != nil {
		return nil, err
	}
	s.storeList(ctx, recentBooksKey, books)
	return books, nil
}

func (s *BookService) GetBooksByCategory(ctx context.Context, category string) ([]models.Book, error) {
	return s.BookRepo.GetBooksByCategory(ctx, category)
}

func (s *BookService) GetCategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	return s.BookRepo.GetCategoryCounts(ctx)
}

func (s *BookService) GetBooksByEmail(ctx context.Context, email string) ([]models.Book, error) {
	return s.BookRepo.GetBooksByEmail(ctx, email)
}

func (s *BookService) GetBookByID(ctx context.Context, id int) (models.Book, error) {
	return s.BookRepo.GetBookByID(ctx, id)
}

func (s *BookService) UpdateBook(ctx context.Context, book models.Book) (models.Book, error) {
	updated, err := s.BookRepo.UpdateBook(ctx, book)
	if err != nil {
		return models.Book{}, err
	}
	s.invalidateLists(ctx)
	return updated, nil
}

func (s *BookService) UpdateReadingStatus(ctx context.Context, id int, status string) error {
	return s.BookRepo.UpdateReadingStatus(ctx, id, status)
}

func (s *BookService) UpvoteBook(ctx context.Context, id int) (int, error) {
	upvote, err := s.BookRepo.IncrementUpvote(ctx, id)
	if err != nil {
		return 0, err
	}
	s.invalidateLists(ctx)
	return upvote, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id int) error {
	if err := s.BookRepo.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *BookService) cachedList(ctx context.Context, key string) ([]models.Book, bool) {
	if s.Cache == nil {
		return nil, false
	}
	raw, err := s.Cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var books []models.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, false
	}
	return books, true
}

func (s *BookService) storeList(ctx context.Context, key string, books []models.Book) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(books)
	if err != nil {
		return
	}
	s.Cache.Set(ctx, key, raw, bookCacheTTL)
}

func (s *BookService) invalidateLists(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	s.Cache.Del(ctx, topBooksKey, recentBooksKey)
}
