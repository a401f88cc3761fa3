package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"bookshelfBack/internal/handlers"
	"bookshelfBack/internal/repositories"
	"bookshelfBack/internal/services"
	"bookshelfBack/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB

	tokenVerifier services.TokenVerifier

	userHandler    *handlers.UserHandler
	bookHandler    *handlers.BookHandler
	ratingHandler  *handlers.RatingHandler
	paymentHandler *handlers.PaymentHandler

	paymentService *services.PaymentService
}

func initializeApp(db *sql.DB, cache *redis.Client, verifier services.TokenVerifier, gateway *services.SSLCommerzService, storage *utils.S3Storage, errorLog, infoLog *log.Logger) *application {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	bookRepo := repositories.BookRepository{DB: db}
	ratingRepo := repositories.RatingRepository{DB: db}
	subscriptionRepo := repositories.SubscriptionRepository{DB: db}

	// Services
	userService := &services.UserService{UserRepo: &userRepo}
	bookService := &services.BookService{BookRepo: &bookRepo, Cache: cache}
	ratingService := &services.RatingService{RatingRepo: &ratingRepo}
	accessService := &services.AccessService{Users: &userRepo}
	paymentService := &services.PaymentService{
		Gateway:  gateway,
		Attempts: &subscriptionRepo,
		Users:    &userRepo,
		InfoLog:  infoLog,
		ErrorLog: errorLog,
	}

	// Handlers
	userHandler := &handlers.UserHandler{Service: userService, Access: accessService}
	bookHandler := &handlers.BookHandler{Service: bookService, Access: accessService, Storage: storage}
	ratingHandler := &handlers.RatingHandler{Service: ratingService, Access: accessService}
	paymentHandler := &handlers.PaymentHandler{Service: paymentService, Access: accessService}

	return &application{
		errorLog:       errorLog,
		infoLog:        infoLog,
		db:             db,
		tokenVerifier:  verifier,
		userHandler:    userHandler,
		bookHandler:    bookHandler,
		ratingHandler:  ratingHandler,
		paymentHandler: paymentHandler,
		paymentService: paymentService,
	}
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Println("Successfully connected to database")
	return db, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
		next.ServeHTTP(w, r)
	})
}
