package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookshelfBack/internal/models"
	"bookshelfBack/internal/services"
)

type PaymentHandler struct {
	Service *services.PaymentService
	Access  *services.AccessService
}

// InitPayment opens a gateway checkout session for the authenticated user.
// The caller redirects the browser to the returned GatewayPageURL.
func (h *PaymentHandler) InitPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Nobody buys a subscription onto someone else's account.
	if err := h.Access.RequireSelf(tokenEmail(r), req.CusEmail); err != nil {
		http.Error(w, "Forbidden Access", http.StatusForbidden)
		return
	}
	if req.Amount <= 0 || req.Currency == "" || req.ProductName == "" {
		http.Error(w, "Missing payment fields", http.StatusBadRequest)
		return
	}

	session, err := h.Service.InitiatePayment(r.Context(), req)
	if err != nil {
		http.Error(w, `{"error":"Failed to initiate payment"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// IPN consumes the gateway's asynchronous notification. The endpoint is
// deliberately unauthenticated; trust comes solely from the server-to-gateway
// validation inside the service.
func (h *PaymentHandler) IPN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	notification := models.IPNNotification{
		ValID:  r.FormValue("val_id"),
		Status: r.FormValue("status"),
		TranID: r.FormValue("tran_id"),
	}

	outcome, err := h.Service.ProcessIPN(r.Context(), notification)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidNotification):
			http.Error(w, "Invalid IPN data", http.StatusBadRequest)
		case errors.Is(err, models.ErrUnknownTransaction):
			http.Error(w, "Unknown transaction", http.StatusNotFound)
		default:
			// No redirect: the browser stays put rather than landing on a
			// success page local state does not back.
			http.Error(w, "Error processing IPN", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
}

// GetAttempts returns the caller's own payment history.
func (h *PaymentHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(":email")
	if email == "" {
		http.Error(w, "Missing email", http.StatusBadRequest)
		return
	}
	if err := h.Access.RequireSelf(tokenEmail(r), email); err != nil {
		http.Error(w, "Forbidden Access", http.StatusForbidden)
		return
	}

	attempts, err := h.Service.ListAttempts(r.Context(), email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attempts)
}
