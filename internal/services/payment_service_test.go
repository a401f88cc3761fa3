package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookshelfBack/internal/models"
)

type fakeAttemptStore struct {
	attempts map[string]*models.SubscriptionAttempt

	// Mirrors users.subscription_status so the unapplied-success query can be
	// answered the way the real join does.
	activeUsers map[string]bool

	createErr error
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts:    map[string]*models.SubscriptionAttempt{},
		activeUsers: map[string]bool{},
	}
}

func (f *fakeAttemptStore) CreateAttempt(_ context.Context, attempt models.SubscriptionAttempt) (models.SubscriptionAttempt, error) {
	if f.createErr != nil {
		return models.SubscriptionAttempt{}, f.createErr
	}
	attempt.CreatedAt = time.Now()
	f.attempts[attempt.TranID] = &attempt
	return attempt, nil
}

func (f *fakeAttemptStore) GetAttemptByTranID(_ context.Context, tranID string) (models.SubscriptionAttempt, error) {
	a, ok := f.attempts[tranID]
	if !ok {
		return models.SubscriptionAttempt{}, models.ErrAttemptNotFound
	}
	return *a, nil
}

func (f *fakeAttemptStore) ListAttemptsByEmail(_ context.Context, email string) ([]models.SubscriptionAttempt, error) {
	var out []models.SubscriptionAttempt
	for _, a := range f.attempts {
		if a.CusEmail == email {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) MarkSuccess(_ context.Context, tranID, valID string) (bool, error) {
	a, ok := f.attempts[tranID]
	if !ok || a.Status != models.AttemptStatusPending {
		return false, nil
	}
	a.Status = models.AttemptStatusSuccess
	a.ValID = valID
	return true, nil
}

func (f *fakeAttemptStore) MarkTerminal(_ context.Context, tranID, status string) (bool, error) {
	a, ok := f.attempts[tranID]
	if !ok || a.Status != models.AttemptStatusPending {
		return false, nil
	}
	a.Status = status
	return true, nil
}

func (f *fakeAttemptStore) ListStalePending(_ context.Context, cutoff time.Time) ([]models.SubscriptionAttempt, error) {
	var out []models.SubscriptionAttempt
	for _, a := range f.attempts {
		if a.Status == models.AttemptStatusPending && a.CreatedAt.Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) ListUnappliedSuccess(_ context.Context) ([]models.SubscriptionAttempt, error) {
	var out []models.SubscriptionAttempt
	for _, a := range f.attempts {
		if a.Status == models.AttemptStatusSuccess && !f.activeUsers[a.CusEmail] {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeIdentityStore struct {
	applied  map[string]int
	active   map[string]bool
	applyErr error
}

func (f *fakeIdentityStore) ApplySubscription(_ context.Context, email, _ string, _ int, _ time.Time) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied[email]++
	f.active[email] = true
	return nil
}

// gatewayStub answers session, validator and merchant-lookup requests the way
// the sandbox does. Validation answers are keyed by val_id, merchant answers
// by tran_id.
type gatewayStub struct {
	validations map[string]ValidationResponse
	merchant    map[string]ValidationResponse
	sessionFail bool
}

func (g *gatewayStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "gwprocess"):
			if g.sessionFail {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":         "SUCCESS",
				"GatewayPageURL": "https://sandbox.sslcommerz.com/EasyCheckOut/test",
			})
		case strings.Contains(r.URL.Path, "validationserverAPI"):
			v, ok := g.validations[r.URL.Query().Get("val_id")]
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "INVALID_TRANSACTION"})
				return
			}
			_ = json.NewEncoder(w).Encode(v)
		case strings.Contains(r.URL.Path, "merchantTransIDvalidationAPI"):
			v, ok := g.merchant[r.URL.Query().Get("tran_id")]
			if !ok {
				_ = json.NewEncoder(w).Encode(merchantTranResponse{APIConnect: "DONE"})
				return
			}
			_ = json.NewEncoder(w).Encode(merchantTranResponse{
				APIConnect:   "DONE",
				TransFound:   1,
				Transactions: []ValidationResponse{v},
			})
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestPaymentService(t *testing.T, stub *gatewayStub) (*PaymentService, *fakeAttemptStore, *fakeIdentityStore, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)

	gateway, err := NewSSLCommerzService(SSLCommerzConfig{
		StoreID:       "teststore",
		StorePass:     "testpass",
		BaseURL:       ts.URL,
		ServerBaseURL: "http://backend.test",
		ClientBaseURL: "http://client.test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attempts := newFakeAttemptStore()
	users := &fakeIdentityStore{applied: map[string]int{}, active: attempts.activeUsers}
	svc := &PaymentService{
		Gateway:  gateway,
		Attempts: attempts,
		Users:    users,
		InfoLog:  log.New(io.Discard, "", 0),
		ErrorLog: log.New(io.Discard, "", 0),
	}
	return svc, attempts, users, ts
}

func TestInitiatePayment_PersistsPendingAttempt(t *testing.T) {
	svc, attempts, _, _ := newTestPaymentService(t, &gatewayStub{})

	session, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount:      500,
		Currency:    "BDT",
		ProductName: "premium",
		CusEmail:    "reader@example.com",
		BooksAdded:  20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.GatewayPageURL == "" {
		t.Fatal("expected gateway page url")
	}
	if !strings.HasPrefix(session.TranID, "TrID") {
		t.Errorf("tran_id prefix mismatch: %q", session.TranID)
	}

	stored, err := attempts.GetAttemptByTranID(context.Background(), session.TranID)
	if err != nil {
		t.Fatalf("attempt not stored: %v", err)
	}
	if stored.Status != models.AttemptStatusPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
	if stored.CusEmail != "reader@example.com" {
		t.Errorf("cus_email mismatch: %q", stored.CusEmail)
	}
}

func TestInitiatePayment_GatewayDownLeavesNoAttempt(t *testing.T) {
	svc, attempts, _, _ := newTestPaymentService(t, &gatewayStub{sessionFail: true})

	_, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "reader@example.com",
	})
	if !errors.Is(err, models.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
	if len(attempts.attempts) != 0 {
		t.Errorf("expected no persisted attempts, got %d", len(attempts.attempts))
	}
}

func TestProcessIPN_ValidPaymentAppliesBenefitOnce(t *testing.T) {
	stub := &gatewayStub{validations: map[string]ValidationResponse{}}
	svc, attempts, users, _ := newTestPaymentService(t, stub)

	session, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "reader@example.com", BooksAdded: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub.validations["val-1"] = ValidationResponse{Status: "VALID", TranID: session.TranID, ValID: "val-1"}

	n := models.IPNNotification{ValID: "val-1", Status: "VALID", TranID: session.TranID}
	outcome, err := svc.ProcessIPN(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Applied {
		t.Error("expected benefit applied")
	}
	if outcome.RedirectURL != "http://client.test/payment/success" {
		t.Errorf("redirect = %q", outcome.RedirectURL)
	}
	if users.applied["reader@example.com"] != 1 {
		t.Fatalf("benefit applied %d times, want 1", users.applied["reader@example.com"])
	}

	stored, _ := attempts.GetAttemptByTranID(context.Background(), session.TranID)
	if stored.Status != models.AttemptStatusSuccess {
		t.Errorf("status = %q, want success", stored.Status)
	}
	if stored.ValID != "val-1" {
		t.Errorf("val_id = %q, want val-1", stored.ValID)
	}

	// A replayed notification redirects but must not credit twice.
	outcome, err = svc.ProcessIPN(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if !outcome.Duplicate {
		t.Error("expected replay marked duplicate")
	}
	if outcome.RedirectURL != "http://client.test/payment/success" {
		t.Errorf("replay redirect = %q", outcome.RedirectURL)
	}
	if users.applied["reader@example.com"] != 1 {
		t.Errorf("benefit applied %d times after replay, want 1", users.applied["reader@example.com"])
	}
}

func TestProcessIPN_ForgedSuccessRejected(t *testing.T) {
	svc, attempts, users, _ := newTestPaymentService(t, &gatewayStub{})

	session, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "reader@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Self-reported VALID with a val_id the validator does not confirm.
	_, err = svc.ProcessIPN(context.Background(), models.IPNNotification{
		ValID: "forged", Status: "VALID", TranID: session.TranID,
	})
	if !errors.Is(err, models.ErrInvalidNotification) {
		t.Fatalf("err = %v, want ErrInvalidNotification", err)
	}

	stored, _ := attempts.GetAttemptByTranID(context.Background(), session.TranID)
	if stored.Status != models.AttemptStatusPending {
		t.Errorf("status = %q, want pending untouched", stored.Status)
	}
	if len(users.applied) != 0 {
		t.Error("forged notification must not apply a benefit")
	}
}

func TestProcessIPN_CancelledRedirectsWithoutMutation(t *testing.T) {
	svc, attempts, _, _ := newTestPaymentService(t, &gatewayStub{})

	session, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "reader@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := svc.ProcessIPN(context.Background(), models.IPNNotification{
		Status: "CANCELLED", TranID: session.TranID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.RedirectURL != "http://client.test/subscribe" {
		t.Errorf("redirect = %q", outcome.RedirectURL)
	}
	if outcome.Applied {
		t.Error("cancel must not apply a benefit")
	}

	// The attempt stays pending for the sweeper to settle against the gateway.
	stored, _ := attempts.GetAttemptByTranID(context.Background(), session.TranID)
	if stored.Status != models.AttemptStatusPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
}

func TestProcessIPN_UnknownTransaction(t *testing.T) {
	stub := &gatewayStub{validations: map[string]ValidationResponse{
		"val-x": {Status: "VALID", TranID: "TrIDnobody", ValID: "val-x"},
	}}
	svc, _, _, _ := newTestPaymentService(t, stub)

	_, err := svc.ProcessIPN(context.Background(), models.IPNNotification{
		ValID: "val-x", Status: "VALID", TranID: "TrIDnobody",
	})
	if !errors.Is(err, models.ErrUnknownTransaction) {
		t.Fatalf("err = %v, want ErrUnknownTransaction", err)
	}
}

func TestProcessIPN_ApplyFailureSurfacesError(t *testing.T) {
	stub := &gatewayStub{validations: map[string]ValidationResponse{}}
	svc, _, users, _ := newTestPaymentService(t, stub)
	users.applyErr = fmt.Errorf("db down")

	session, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "reader@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub.validations["val-1"] = ValidationResponse{Status: "VALID", TranID: session.TranID, ValID: "val-1"}

	_, err = svc.ProcessIPN(context.Background(), models.IPNNotification{
		ValID: "val-1", Status: "VALID", TranID: session.TranID,
	})
	if err == nil {
		t.Fatal("expected error when benefit cannot be applied")
	}
}

func TestSweepOnce_RecoversLostNotification(t *testing.T) {
	stub := &gatewayStub{merchant: map[string]ValidationResponse{}}
	svc, attempts, users, _ := newTestPaymentService(t, stub)

	session, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "reader@example.com", BooksAdded: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Backdate past the sweep grace period.
	attempts.attempts[session.TranID].CreatedAt = time.Now().Add(-time.Hour)
	stub.merchant[session.TranID] = ValidationResponse{Status: "VALID", TranID: session.TranID, ValID: "val-9"}

	if err := svc.SweepOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := attempts.GetAttemptByTranID(context.Background(), session.TranID)
	if stored.Status != models.AttemptStatusSuccess {
		t.Errorf("status = %q, want success", stored.Status)
	}
	if users.applied["reader@example.com"] != 1 {
		t.Errorf("benefit applied %d times, want 1", users.applied["reader@example.com"])
	}
}

func TestSweepOnce_SettlesCancelledAndExpiresUnknown(t *testing.T) {
	stub := &gatewayStub{merchant: map[string]ValidationResponse{}}
	svc, attempts, users, _ := newTestPaymentService(t, stub)

	cancelled, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "a@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unknown, err := svc.InitiatePayment(context.Background(), models.PaymentRequest{
		Amount: 500, Currency: "BDT", ProductName: "premium", CusEmail: "b@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attempts.attempts[cancelled.TranID].CreatedAt = time.Now().Add(-time.Hour)
	// Old enough to cross the write-off deadline for unknown transactions.
	attempts.attempts[unknown.TranID].CreatedAt = time.Now().Add(-25 * time.Hour)
	stub.merchant[cancelled.TranID] = ValidationResponse{Status: "CANCELLED", TranID: cancelled.TranID}

	if err := svc.SweepOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := attempts.GetAttemptByTranID(context.Background(), cancelled.TranID)
	if stored.Status != models.AttemptStatusCancelled {
		t.Errorf("cancelled attempt status = %q", stored.Status)
	}
	stored, _ = attempts.GetAttemptByTranID(context.Background(), unknown.TranID)
	if stored.Status != models.AttemptStatusFailed {
		t.Errorf("unknown attempt status = %q, want failed", stored.Status)
	}
	if len(users.applied) != 0 {
		t.Error("no benefit may be applied by this sweep")
	}
}
