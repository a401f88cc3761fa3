package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelfBack/internal/handlers"
	"bookshelfBack/internal/models"
)

type fakeVerifier struct {
	email string
	err   error
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, rawToken string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if rawToken != "good-token" {
		return "", models.ErrUnauthenticated
	}
	return f.email, nil
}

func newAppForTest(verifier *fakeVerifier) *application {
	return &application{
		infoLog:       log.New(io.Discard, "", 0),
		errorLog:      log.New(io.Discard, "", 0),
		tokenVerifier: verifier,
	}
}

func TestFirebaseAuth_MissingHeader(t *testing.T) {
	app := newAppForTest(&fakeVerifier{email: "reader@example.com"})

	called := false
	handler := app.firebaseAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/reader@example.com", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if called {
		t.Error("handler must not run without a credential")
	}
}

func TestFirebaseAuth_MalformedHeader(t *testing.T) {
	app := newAppForTest(&fakeVerifier{email: "reader@example.com"})

	handler := app.firebaseAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a malformed header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/reader@example.com", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestFirebaseAuth_InvalidToken(t *testing.T) {
	app := newAppForTest(&fakeVerifier{err: errors.New("token expired")})

	handler := app.firebaseAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/reader@example.com", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestFirebaseAuth_ValidTokenPutsEmailInContext(t *testing.T) {
	app := newAppForTest(&fakeVerifier{email: "reader@example.com"})

	var gotEmail string
	handler := app.firebaseAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = r.Context().Value(handlers.TokenEmailKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/reader@example.com", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if gotEmail != "reader@example.com" {
		t.Errorf("context email = %q", gotEmail)
	}
}

func TestSecureHeaders(t *testing.T) {
	handler := secureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/book", nil))

	if got := rr.Header().Get("X-Frame-Options"); got != "deny" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rr.Header().Get("X-XSS-Protection"); got != "1; mode=block" {
		t.Errorf("X-XSS-Protection = %q", got)
	}
}
