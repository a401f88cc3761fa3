package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"

	"bookshelfBack/internal/models"
)

// TokenVerifier validates a bearer credential and returns the verified email
// claim. The middleware never lets a request through on any verification error.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (string, error)
}

const verifyTimeout = 5 * time.Second

// FirebaseAuthService verifies Firebase ID tokens against the identity
// provider on every call. Results are deliberately not cached so that a
// revoked or expired token stops working immediately.
type FirebaseAuthService struct {
	Client *auth.Client
}

// NewFirebaseAuthService builds the verifier from a base64-encoded service
// account key (the FB_SERVICE_KEY deployment format).
func NewFirebaseAuthService(ctx context.Context, serviceKeyBase64 string) (*FirebaseAuthService, error) {
	if serviceKeyBase64 == "" {
		return nil, errors.New("firebase: service key is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(serviceKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("firebase: decode service key: %w", err)
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(decoded))
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init auth client: %w", err)
	}
	return &FirebaseAuthService{Client: client}, nil
}

func (s *FirebaseAuthService) VerifyIDToken(ctx context.Context, rawToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	token, err := s.Client.VerifyIDToken(ctx, rawToken)
	if err != nil {
		// Timeouts fail closed: a token we could not verify is not a token.
		return "", models.ErrUnauthenticated
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return "", models.ErrUnauthenticated
	}
	return email, nil
}
