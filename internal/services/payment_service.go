package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookshelfBack/internal/models"
)

// AttemptStore is the slice of the subscription repository the payment flow
// needs.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt models.SubscriptionAttempt) (models.SubscriptionAttempt, error)
	GetAttemptByTranID(ctx context.Context, tranID string) (models.SubscriptionAttempt, error)
	ListAttemptsByEmail(ctx context.Context, email string) ([]models.SubscriptionAttempt, error)
	MarkSuccess(ctx context.Context, tranID, valID string) (bool, error)
	MarkTerminal(ctx context.Context, tranID, status string) (bool, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]models.SubscriptionAttempt, error)
	ListUnappliedSuccess(ctx context.Context) ([]models.SubscriptionAttempt, error)
}

// IdentityStore applies the subscription benefit to the owning user record.
type IdentityStore interface {
	ApplySubscription(ctx context.Context, email, subscriptionType string, booksAdded int, at time.Time) error
}

const (
	// How long an attempt may sit pending before the sweeper asks the
	// gateway about it directly.
	sweepGrace = 30 * time.Minute
	// Pending attempts the gateway has never heard of are written off after
	// this long.
	attemptTTL = 24 * time.Hour
)

// PaymentService owns the subscription payment lifecycle: session initiation
// against SSLCommerz and reconciliation of its asynchronous notifications.
type PaymentService struct {
	Gateway  *SSLCommerzService
	Attempts AttemptStore
	Users    IdentityStore
	InfoLog  *log.Logger
	ErrorLog *log.Logger
}

func newTranID() string {
	return "TrID" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// InitiatePayment creates a gateway checkout session and records the attempt
// as pending. The attempt is persisted only after the gateway accepted the
// session, so a gateway failure leaves no orphaned pending record. The
// initiation POST is never retried: a replay would open a second checkout
// session under a fresh-looking transaction.
func (s *PaymentService) InitiatePayment(ctx context.Context, req models.PaymentRequest) (models.PaymentSession, error) {
	attempt := models.SubscriptionAttempt{
		TranID:          newTranID(),
		CusEmail:        req.CusEmail,
		CusName:         req.CusName,
		CusPhone:        req.CusPhone,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ProductName:     req.ProductName,
		ProductCategory: req.ProductCategory,
		BooksAdded:      req.BooksAdded,
		Status:          models.AttemptStatusPending,
	}

	gatewayURL, err := s.Gateway.CreateSession(ctx, attempt)
	if err != nil {
		return models.PaymentSession{}, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}

	if _, err := s.Attempts.CreateAttempt(ctx, attempt); err != nil {
		// The gateway session exists but we cannot track it; surfacing the
		// error keeps the user off the checkout page for a payment we would
		// lose sight of.
		s.ErrorLog.Printf("payment: attempt %s not persisted: %v", attempt.TranID, err)
		return models.PaymentSession{}, fmt.Errorf("persist attempt: %w", err)
	}

	s.InfoLog.Printf("payment: initiated %s for %s (%s %.2f)", attempt.TranID, attempt.CusEmail, attempt.Currency, attempt.Amount)
	return models.PaymentSession{TranID: attempt.TranID, GatewayPageURL: gatewayURL}, nil
}

// ProcessIPN reconciles an asynchronous gateway notification. The body
// arrives over the public network with attacker-controllable fields, so the
// only input acted upon is the validator's answer for the reported val_id.
//
// State machine per attempt: pending -> {success, cancelled, failed}, one
// way, at most once. The success transition is a conditional update, so two
// concurrent or replayed notifications for one tran_id credit the benefit
// exactly once.
func (s *PaymentService) ProcessIPN(ctx context.Context, n models.IPNNotification) (models.IPNOutcome, error) {
	validation, err := s.Gateway.ValidateTransaction(ctx, n.ValID)
	if err != nil || !IsValidStatus(validation.Status) {
		// The gateway did not vouch for this notification. A self-reported
		// cancel/fail still gets the browser back to the client; anything
		// else is rejected outright with no state change.
		switch strings.ToUpper(n.Status) {
		case "CANCELLED":
			return models.IPNOutcome{RedirectURL: s.Gateway.CancelURL()}, nil
		case "FAILED":
			return models.IPNOutcome{RedirectURL: s.Gateway.FailURL()}, nil
		}
		if err != nil {
			s.ErrorLog.Printf("payment: validation for val_id=%q failed: %v", n.ValID, err)
		}
		return models.IPNOutcome{}, models.ErrInvalidNotification
	}

	// From here on only the validator's tran_id counts, never the one in the
	// notification body.
	attempt, err := s.Attempts.GetAttemptByTranID(ctx, validation.TranID)
	if err != nil {
		if errors.Is(err, models.ErrAttemptNotFound) {
			return models.IPNOutcome{}, models.ErrUnknownTransaction
		}
		return models.IPNOutcome{}, err
	}

	transitioned, err := s.Attempts.MarkSuccess(ctx, validation.TranID, validation.ValID)
	if err != nil {
		return models.IPNOutcome{}, err
	}
	if !transitioned {
		s.InfoLog.Printf("payment: replayed notification for %s ignored", validation.TranID)
		return models.IPNOutcome{RedirectURL: s.Gateway.SuccessURL(), Duplicate: true}, nil
	}

	if err := s.Users.ApplySubscription(ctx, attempt.CusEmail, attempt.ProductName, attempt.BooksAdded, time.Now()); err != nil {
		// Money has moved but the identity does not reflect it yet. The
		// sweeper re-applies on its next pass; this log line is the incident
		// trail.
		s.ErrorLog.Printf("payment: INCIDENT %s validated but benefit not applied for %s: %v",
			validation.TranID, attempt.CusEmail, err)
		return models.IPNOutcome{}, fmt.Errorf("apply subscription benefit: %w", err)
	}

	s.InfoLog.Printf("payment: reconciled %s, subscription %q active for %s",
		validation.TranID, attempt.ProductName, attempt.CusEmail)
	return models.IPNOutcome{RedirectURL: s.Gateway.SuccessURL(), Applied: true}, nil
}

// ListAttempts returns a user's payment history, newest first.
func (s *PaymentService) ListAttempts(ctx context.Context, email string) ([]models.SubscriptionAttempt, error) {
	return s.Attempts.ListAttemptsByEmail(ctx, email)
}

// SweepOnce is the reconciliation safety net behind ProcessIPN. It resolves
// pending attempts whose notification never arrived (or died mid-flight) by
// asking the gateway directly, expires attempts the gateway has no record of,
// and re-applies benefits for success attempts whose owner is still inactive.
func (s *PaymentService) SweepOnce(ctx context.Context, now time.Time) error {
	stale, err := s.Attempts.ListStalePending(ctx, now.Add(-sweepGrace))
	if err != nil {
		return fmt.Errorf("list stale pending: %w", err)
	}
	for _, attempt := range stale {
		if err := s.sweepPending(ctx, attempt, now); err != nil {
			s.ErrorLog.Printf("payment: sweep of %s failed: %v", attempt.TranID, err)
		}
	}

	unapplied, err := s.Attempts.ListUnappliedSuccess(ctx)
	if err != nil {
		return fmt.Errorf("list unapplied success: %w", err)
	}
	for _, attempt := range unapplied {
		if err := s.Users.ApplySubscription(ctx, attempt.CusEmail, attempt.ProductName, attempt.BooksAdded, now); err != nil {
			s.ErrorLog.Printf("payment: benefit re-apply for %s failed: %v", attempt.TranID, err)
			continue
		}
		s.InfoLog.Printf("payment: benefit re-applied for %s (%s)", attempt.TranID, attempt.CusEmail)
	}
	return nil
}

func (s *PaymentService) sweepPending(ctx context.Context, attempt models.SubscriptionAttempt, now time.Time) error {
	state, err := s.Gateway.QueryTransaction(ctx, attempt.TranID)
	if err != nil {
		if !errors.Is(err, models.ErrUnknownTransaction) {
			// Gateway trouble; leave the attempt for the next pass.
			return err
		}
		if attempt.CreatedAt.After(now.Add(-attemptTTL)) {
			return nil
		}
		if _, err := s.Attempts.MarkTerminal(ctx, attempt.TranID, models.AttemptStatusFailed); err != nil {
			return err
		}
		s.InfoLog.Printf("payment: expired %s, no gateway record after %s", attempt.TranID, attemptTTL)
		return nil
	}

	switch {
	case IsValidStatus(state.Status):
		transitioned, err := s.Attempts.MarkSuccess(ctx, attempt.TranID, state.ValID)
		if err != nil {
			return err
		}
		if transitioned {
			if err := s.Users.ApplySubscription(ctx, attempt.CusEmail, attempt.ProductName, attempt.BooksAdded, now); err != nil {
				s.ErrorLog.Printf("payment: INCIDENT %s recovered but benefit not applied: %v", attempt.TranID, err)
				return err
			}
			s.InfoLog.Printf("payment: recovered %s via sweep, subscription active for %s", attempt.TranID, attempt.CusEmail)
		}
	case state.Status == "CANCELLED":
		_, err = s.Attempts.MarkTerminal(ctx, attempt.TranID, models.AttemptStatusCancelled)
		return err
	case state.Status == "FAILED":
		_, err = s.Attempts.MarkTerminal(ctx, attempt.TranID, models.AttemptStatusFailed)
		return err
	}
	return nil
}
