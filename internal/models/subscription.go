package models

import "time"

const (
	AttemptStatusPending   = "pending"
	AttemptStatusSuccess   = "success"
	AttemptStatusCancelled = "cancelled"
	AttemptStatusFailed    = "failed"
)

// SubscriptionAttempt is one payment session, tracked from initiation until a
// terminal outcome. The terminal transition happens at most once per tran_id.
type SubscriptionAttempt struct {
	ID              int        `json:"id"`
	TranID          string     `json:"tran_id"`
	ValID           string     `json:"val_id,omitempty"`
	CusEmail        string     `json:"cus_email"`
	CusName         string     `json:"cus_name,omitempty"`
	CusPhone        string     `json:"cus_phone,omitempty"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	ProductName     string     `json:"product_name"`
	ProductCategory string     `json:"product_category,omitempty"`
	BooksAdded      int        `json:"books_added"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// PaymentRequest is the inbound body of POST /payment/init.
type PaymentRequest struct {
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	ProductName     string  `json:"product_name"`
	ProductCategory string  `json:"product_category"`
	CusName         string  `json:"cus_name"`
	CusEmail        string  `json:"cus_email"`
	CusPhone        string  `json:"cus_phone"`
	BooksAdded      int     `json:"books_added"`
}

// PaymentSession is returned to the caller, who redirects the browser to
// GatewayPageURL.
type PaymentSession struct {
	TranID         string `json:"tran_id"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// IPNNotification holds the untrusted fields of an inbound gateway callback.
// Nothing here is acted on before the authoritative validation call.
type IPNNotification struct {
	ValID  string
	Status string
	TranID string
}

// IPNOutcome tells the handler where to send the browser after reconciliation.
type IPNOutcome struct {
	RedirectURL string
	Applied     bool
	Duplicate   bool
}
