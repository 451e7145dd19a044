package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction statuses. The purchase workflow only ever records success;
// there is no real payment gateway behind it.
const (
	TransactionStatusSuccess = "success"
)

// DefaultPaymentMethod is used when the client omits a method label.
const DefaultPaymentMethod = "MockPayment"

// Transaction is the payment record associated with issuing a Pass.
// PassID is attached in a second write, immediately after the Pass insert.
type Transaction struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	TransactionID string        `json:"transaction_id" db:"transaction_id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	Amount        int64         `json:"amount" db:"amount"`
	Method        string        `json:"method" db:"method"`
	Mode          string        `json:"mode" db:"mode"`
	PassType      string        `json:"pass_type" db:"pass_type"`
	Status        string        `json:"status" db:"status"`
	PassID        uuid.NullUUID `json:"pass_id,omitempty" db:"pass_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	UserID    *uuid.UUID
	Status    string
	Mode      string
	DateFrom  *time.Time
	DateTo    *time.Time
	MinAmount *int64
	MaxAmount *int64
}

// PassFilter narrows pass listings.
type PassFilter struct {
	UserID   *uuid.UUID
	Mode     string
	Status   string // Active or Expired, derived from valid_to
	DateFrom *time.Time
	DateTo   *time.Time
}

// TransactionStats aggregates transaction counts and revenue for a scope.
type TransactionStats struct {
	TotalTransactions     int64 `json:"total_transactions"`
	CompletedTransactions int64 `json:"completed_transactions"`
	TotalRevenue          int64 `json:"total_revenue"`
	AverageAmount         int64 `json:"average_amount"`
}
