package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"bookshelfBack/internal/config"
	"bookshelfBack/internal/services"
	"bookshelfBack/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	cfg := config.LoadConfig()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Address
	} else {
		port = ":" + port
	}

	addr := flag.String("addr", port, "HTTP network address")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	db, err := openDB(cfg.Database.URL)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := openCache(cfg, infoLog)
	if cache != nil {
		defer cache.Close()
	}

	verifier, err := services.NewFirebaseAuthService(ctx, cfg.Firebase.ServiceKey)
	if err != nil {
		errorLog.Fatal(err)
	}

	gateway, err := services.NewSSLCommerzService(services.SSLCommerzConfig{
		StoreID:       cfg.SSLCommerz.StoreID,
		StorePass:     cfg.SSLCommerz.StorePass,
		BaseURL:       cfg.SSLCommerz.BaseURL,
		ServerBaseURL: cfg.SSLCommerz.ServerBaseURL,
		ClientBaseURL: cfg.SSLCommerz.ClientBaseURL,
	})
	if err != nil {
		errorLog.Fatal(err)
	}

	storage := openStorage(cfg, errorLog)

	app := initializeApp(db, cache, verifier, gateway, storage, errorLog, infoLog)

	startAttemptSweeper(ctx, app.paymentService)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      addSecurityHeaders(c.Handler(app.routes())),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	infoLog.Printf("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}

// openCache connects to Redis when configured. The book list cache is best
// effort, so a missing Redis address only logs a note.
func openCache(cfg config.Config, infoLog *log.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		infoLog.Println("Redis not configured, book list cache disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// openStorage builds the cover-upload backend when S3 credentials are set.
func openStorage(cfg config.Config, errorLog *log.Logger) *utils.S3Storage {
	if cfg.Storage.AccessKey == "" && cfg.Storage.SecretKey == "" {
		return nil
	}
	storage, err := utils.NewS3Storage(
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Region,
		cfg.Storage.Endpoint,
		cfg.Storage.Bucket,
		cfg.Storage.PublicBaseURL,
	)
	if err != nil {
		errorLog.Printf("S3 storage disabled: %v", err)
		return nil
	}
	return storage
}
