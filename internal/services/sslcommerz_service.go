package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"bookshelfBack/internal/models"
)

type SSLCommerzConfig struct {
	StoreID   string
	StorePass string

	// База шлюза, например https://sandbox.sslcommerz.com
	BaseURL string

	// Публичный адрес этого бэкенда; все callback-URL строятся от него.
	ServerBaseURL string
	// Адрес фронтенда для финальных редиректов браузера.
	ClientBaseURL string

	Client *http.Client
	Logger *slog.Logger
}

// SSLCommerzService talks to the SSLCommerz hosted-checkout API: session
// initiation, validator lookups by val_id, and merchant transaction lookups
// by tran_id.
type SSLCommerzService struct {
	storeID   string
	storePass string
	baseURL   *url.URL

	serverBaseURL string
	clientBaseURL string

	httpClient *http.Client
	logger     *slog.Logger
}

const validateRetries = 2

func NewSSLCommerzService(cfg SSLCommerzConfig) (*SSLCommerzService, error) {
	if strings.TrimSpace(cfg.StoreID) == "" ||
		strings.TrimSpace(cfg.StorePass) == "" ||
		strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("sslcommerz: store_id/store_passwd/base_url are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	s := &SSLCommerzService{
		storeID:       cfg.StoreID,
		storePass:     cfg.StorePass,
		baseURL:       u,
		serverBaseURL: strings.TrimRight(cfg.ServerBaseURL, "/"),
		clientBaseURL: strings.TrimRight(cfg.ClientBaseURL, "/"),
		httpClient:    client,
		logger:        logger,
	}
	logger.Info("SSLCommerz initialized",
		"baseURL", s.baseURL.String(),
		"serverBaseURL_set", s.serverBaseURL != "",
		"clientBaseURL_set", s.clientBaseURL != "",
	)
	return s, nil
}

// IPNURL is where the gateway reports transaction outcomes. Success, fail and
// cancel browser returns all land on the same reconciliation endpoint.
func (s *SSLCommerzService) IPNURL() string { return s.serverBaseURL + "/payment/ipn" }

func (s *SSLCommerzService) SuccessURL() string { return s.clientBaseURL + "/payment/success" }
func (s *SSLCommerzService) FailURL() string    { return s.clientBaseURL + "/payment/fail" }
func (s *SSLCommerzService) CancelURL() string  { return s.clientBaseURL + "/subscribe" }

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// CreateSession submits a hosted-checkout session request and returns the
// gateway page the browser must be redirected to. Nothing is persisted here;
// the caller only records the attempt after the gateway accepted the session.
func (s *SSLCommerzService) CreateSession(ctx context.Context, attempt models.SubscriptionAttempt) (string, error) {
	logger := s.logger.With("op", "CreateSession", "tran_id", attempt.TranID)

	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/gwprocess/v4/api.php")

	form := url.Values{}
	form.Set("store_id", s.storeID)
	form.Set("store_passwd", s.storePass)
	form.Set("total_amount", fmt.Sprintf("%.2f", attempt.Amount))
	form.Set("currency", attempt.Currency)
	form.Set("tran_id", attempt.TranID)
	form.Set("success_url", s.IPNURL())
	form.Set("fail_url", s.IPNURL())
	form.Set("cancel_url", s.IPNURL())
	form.Set("ipn_url", s.IPNURL())
	form.Set("shipping_method", "N/A")
	form.Set("product_name", attempt.ProductName)
	form.Set("product_category", attempt.ProductCategory)
	form.Set("product_profile", "N/A")
	form.Set("cus_name", attempt.CusName)
	form.Set("cus_email", attempt.CusEmail)
	form.Set("cus_add1", "Dhaka")
	form.Set("cus_city", "Dhaka")
	form.Set("cus_state", "Dhaka")
	form.Set("cus_postcode", "Dhaka")
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", attempt.CusPhone)
	form.Set("ship_name", "Dhaka")
	form.Set("ship_add1", "Dhaka")
	form.Set("ship_city", "Dhaka")
	form.Set("ship_state", "Dhaka")
	form.Set("ship_postcode", "Dhaka")
	form.Set("ship_country", "Bangladesh")

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	logger.Debug("session raw", "status", resp.Status, "body", trimBody(string(b), 2000))

	if resp.StatusCode != http.StatusOK {
		return "", &SSLCommerzError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	var out sessionResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if !strings.EqualFold(out.Status, "SUCCESS") {
		return "", fmt.Errorf("session rejected: %s", strings.TrimSpace(out.FailedReason))
	}
	if strings.TrimSpace(out.GatewayPageURL) == "" {
		return "", errors.New("session response: empty GatewayPageURL")
	}
	return out.GatewayPageURL, nil
}

// ValidationResponse is the authoritative view of a transaction. Only fields
// from here may drive state transitions; the IPN body itself is never trusted.
type ValidationResponse struct {
	Status   string `json:"status"`
	TranID   string `json:"tran_id"`
	ValID    string `json:"val_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// IsValidStatus reports whether the validator confirmed the transaction.
// SSLCommerz returns VALID for a fresh confirmation and VALIDATED for one
// that has been checked before.
func IsValidStatus(status string) bool {
	return status == "VALID" || status == "VALIDATED"
}

// ValidateTransaction re-queries the gateway's validator for a val_id taken
// from an inbound notification. Transport failures get a small bounded retry;
// the lookup is an idempotent GET. Persistent failure means the notification
// stays untrusted.
func (s *SSLCommerzService) ValidateTransaction(ctx context.Context, valID string) (ValidationResponse, error) {
	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/validator/api/validationserverAPI.php")
	q := url.Values{}
	q.Set("val_id", valID)
	q.Set("store_id", s.storeID)
	q.Set("store_passwd", s.storePass)
	q.Set("v", "1")
	q.Set("format", "json")
	endpoint.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; attempt <= validateRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ValidationResponse{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		out, err := s.fetchValidation(ctx, endpoint.String())
		if err == nil {
			return out, nil
		}
		lastErr = err
		var apiErr *SSLCommerzError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			break
		}
		s.logger.Warn("validator retry", "op", "ValidateTransaction", "attempt", attempt+1, "err", err)
	}
	return ValidationResponse{}, lastErr
}

func (s *SSLCommerzService) fetchValidation(ctx context.Context, rawURL string) (ValidationResponse, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("validation request: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return ValidationResponse{}, &SSLCommerzError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	var out ValidationResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return ValidationResponse{}, fmt.Errorf("decode validation response: %w", err)
	}
	return out, nil
}

type merchantTranResponse struct {
	APIConnect   string               `json:"APIConnect"`
	TransFound   int                  `json:"no_of_trans_found"`
	Transactions []ValidationResponse `json:"element"`
}

// QueryTransaction asks the gateway for the current state of a tran_id. Used
// by the sweeper for attempts that never received a usable notification.
// Returns ErrUnknownTransaction when the gateway has no record at all.
func (s *SSLCommerzService) QueryTransaction(ctx context.Context, tranID string) (ValidationResponse, error) {
	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/validator/api/merchantTransIDvalidationAPI.php")
	q := url.Values{}
	q.Set("tran_id", tranID)
	q.Set("store_id", s.storeID)
	q.Set("store_passwd", s.storePass)
	q.Set("v", "1")
	q.Set("format", "json")
	endpoint.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("transaction query: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return ValidationResponse{}, &SSLCommerzError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	var out merchantTranResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return ValidationResponse{}, fmt.Errorf("decode transaction query: %w", err)
	}
	if out.TransFound == 0 || len(out.Transactions) == 0 {
		return ValidationResponse{}, models.ErrUnknownTransaction
	}
	return out.Transactions[0], nil
}

type SSLCommerzError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *SSLCommerzError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("sslcommerz: %s %s", e.Status, trimBody(e.Body, 300))
}

func trimBody(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
