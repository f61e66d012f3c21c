/**
 * @description
 * Ledger transaction model. Transactions are append-only: a deposit row is
 * inserted inside the receipt-approval database transaction and never
 * mutated afterwards. ReceiptID carries a unique constraint so one receipt
 * can never yield two deposits.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType distinguishes deposits from payouts.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the settlement state of a ledger row.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is one immutable ledger entry. Amount is in minor units.
type Transaction struct {
	ID           uuid.UUID         `json:"id"`
	AmbassadorID uuid.UUID         `json:"ambassador_id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Type         TransactionType   `json:"type"`
	Status       TransactionStatus `json:"status"`
	ReceiptID    *uuid.UUID        `json:"receipt_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
