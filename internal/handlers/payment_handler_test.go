package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/services"
)

type stubAttemptStore struct {
	attempts map[string]*models.SubscriptionAttempt
}

func (s *stubAttemptStore) CreateAttempt(_ context.Context, a models.SubscriptionAttempt) (models.SubscriptionAttempt, error) {
	s.attempts[a.TranID] = &a
	return a, nil
}

func (s *stubAttemptStore) GetAttemptByTranID(_ context.Context, tranID string) (models.SubscriptionAttempt, error) {
	a, ok := s.attempts[tranID]
	if !ok {
		return models.SubscriptionAttempt{}, models.ErrAttemptNotFound
	}
	return *a, nil
}

func (s *stubAttemptStore) ListAttemptsByEmail(_ context.Context, email string) ([]models.SubscriptionAttempt, error) {
	var out []models.SubscriptionAttempt
	for _, a := range s.attempts {
		if a.CusEmail == email {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *stubAttemptStore) MarkSuccess(_ context.Context, tranID, valID string) (bool, error) {
	a, ok := s.attempts[tranID]
	if !ok || a.Status != models.AttemptStatusPending {
		return false, nil
	}
	a.Status = models.AttemptStatusSuccess
	a.ValID = valID
	return true, nil
}

func (s *stubAttemptStore) MarkTerminal(_ context.Context, tranID, status string) (bool, error) {
	a, ok := s.attempts[tranID]
	if !ok || a.Status != models.AttemptStatusPending {
		return false, nil
	}
	a.Status = status
	return true, nil
}

func (s *stubAttemptStore) ListStalePending(_ context.Context, _ time.Time) ([]models.SubscriptionAttempt, error) {
	return nil, nil
}

func (s *stubAttemptStore) ListUnappliedSuccess(_ context.Context) ([]models.SubscriptionAttempt, error) {
	return nil, nil
}

type stubIdentityStore struct{ applied int }

func (s *stubIdentityStore) ApplySubscription(_ context.Context, _, _ string, _ int, _ time.Time) error {
	s.applied++
	return nil
}

func newPaymentHandlerForTest(t *testing.T, validations map[string]services.ValidationResponse) (*PaymentHandler, *stubAttemptStore, *stubIdentityStore) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "gwprocess"):
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":         "SUCCESS",
				"GatewayPageURL": "https://sandbox.sslcommerz.com/EasyCheckOut/test",
			})
		case strings.Contains(r.URL.Path, "validationserverAPI"):
			v, ok := validations[r.URL.Query().Get("val_id")]
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "INVALID_TRANSACTION"})
				return
			}
			_ = json.NewEncoder(w).Encode(v)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	gateway, err := services.NewSSLCommerzService(services.SSLCommerzConfig{
		StoreID:       "teststore",
		StorePass:     "testpass",
		BaseURL:       ts.URL,
		ServerBaseURL: "http://backend.test",
		ClientBaseURL: "http://client.test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attempts := &stubAttemptStore{attempts: map[string]*models.SubscriptionAttempt{}}
	users := &stubIdentityStore{}
	svc := &services.PaymentService{
		Gateway:  gateway,
		Attempts: attempts,
		Users:    users,
		InfoLog:  log.New(io.Discard, "", 0),
		ErrorLog: log.New(io.Discard, "", 0),
	}
	return &PaymentHandler{Service: svc, Access: &services.AccessService{}}, attempts, users
}

func ipnRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/payment/ipn", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIPN_ValidatedPaymentRedirectsToSuccess(t *testing.T) {
	validations := map[string]services.ValidationResponse{}
	h, attempts, users := newPaymentHandlerForTest(t, validations)

	attempts.attempts["TrIDabc"] = &models.SubscriptionAttempt{
		TranID: "TrIDabc", CusEmail: "reader@example.com", Status: models.AttemptStatusPending,
	}
	validations["val-1"] = services.ValidationResponse{Status: "VALID", TranID: "TrIDabc", ValID: "val-1"}

	rr := httptest.NewRecorder()
	h.IPN(rr, ipnRequest(url.Values{"val_id": {"val-1"}, "status": {"VALID"}, "tran_id": {"TrIDabc"}}))

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "http://client.test/payment/success" {
		t.Errorf("location = %q", loc)
	}
	if users.applied != 1 {
		t.Errorf("benefit applied %d times, want 1", users.applied)
	}
}

func TestIPN_ForgedNotificationRejected(t *testing.T) {
	h, attempts, users := newPaymentHandlerForTest(t, map[string]services.ValidationResponse{})

	attempts.attempts["TrIDabc"] = &models.SubscriptionAttempt{
		TranID: "TrIDabc", CusEmail: "reader@example.com", Status: models.AttemptStatusPending,
	}

	rr := httptest.NewRecorder()
	h.IPN(rr, ipnRequest(url.Values{"val_id": {"forged"}, "status": {"VALID"}, "tran_id": {"TrIDabc"}}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if users.applied != 0 {
		t.Error("forged notification must not apply a benefit")
	}
	if attempts.attempts["TrIDabc"].Status != models.AttemptStatusPending {
		t.Errorf("attempt status = %q, want pending", attempts.attempts["TrIDabc"].Status)
	}
}

func TestIPN_UnknownTransactionIs404(t *testing.T) {
	validations := map[string]services.ValidationResponse{
		"val-9": {Status: "VALID", TranID: "TrIDnobody", ValID: "val-9"},
	}
	h, _, _ := newPaymentHandlerForTest(t, validations)

	rr := httptest.NewRecorder()
	h.IPN(rr, ipnRequest(url.Values{"val_id": {"val-9"}, "status": {"VALID"}, "tran_id": {"TrIDnobody"}}))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestIPN_CancelRedirectsBackToSubscribe(t *testing.T) {
	h, attempts, _ := newPaymentHandlerForTest(t, map[string]services.ValidationResponse{})

	attempts.attempts["TrIDabc"] = &models.SubscriptionAttempt{
		TranID: "TrIDabc", CusEmail: "reader@example.com", Status: models.AttemptStatusPending,
	}

	rr := httptest.NewRecorder()
	h.IPN(rr, ipnRequest(url.Values{"status": {"CANCELLED"}, "tran_id": {"TrIDabc"}}))

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "http://client.test/subscribe" {
		t.Errorf("location = %q", loc)
	}
}

func TestInitPayment_ForbidsPayingForAnotherUser(t *testing.T) {
	h, _, _ := newPaymentHandlerForTest(t, map[string]services.ValidationResponse{})

	body := `{"amount":500,"currency":"BDT","product_name":"premium","cus_email":"victim@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/payment/init", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), TokenEmailKey, "attacker@example.com"))

	rr := httptest.NewRecorder()
	h.InitPayment(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}
