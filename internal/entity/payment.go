package domain

import (
	"errors"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvalidSignature means a gateway callback failed HMAC verification.
	// Nothing the callback carries may be trusted once this is raised.
	ErrInvalidSignature = errors.New("invalid gateway signature")
)

// Payment is 1:1 with an order.
type Payment struct {
	ID              string
	OrderID         string
	MethodID        int64
	Amount          int64
	Status          PaymentStatus
	TransactionCode string
	PaymentURL      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentHistory rows are append-only; they are never updated or deleted.
type PaymentHistory struct {
	ID        int64
	PaymentID string
	Status    PaymentStatus
	Note      string
	CreatedAt time.Time
}

// PaymentMethod distinguishes gateway-backed methods (which get a signed
// redirect URL) from offline ones such as cash on delivery.
type PaymentMethod struct {
	ID      int64
	Name    string
	Code    string
	Gateway bool
}
