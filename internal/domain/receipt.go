/**
 * @description
 * Deposit receipt model. An ambassador uploads a receipt image for a manual
 * deposit; an admin approves or rejects it. Approval is the only path that
 * creates a ledger transaction.
 */
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReceiptStatus is the review lifecycle of an uploaded deposit receipt.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptApproved ReceiptStatus = "approved"
	ReceiptRejected ReceiptStatus = "rejected"
)

// ParseReceiptStatus maps a stored receipt status onto the closed enum.
func ParseReceiptStatus(s string) (ReceiptStatus, error) {
	switch ReceiptStatus(s) {
	case ReceiptPending, ReceiptApproved, ReceiptRejected:
		return ReceiptStatus(s), nil
	default:
		return "", fmt.Errorf("unknown receipt status %q", s)
	}
}

// Receipt is one deposit claim awaiting admin review. Amount is in minor
// units (cents) to avoid floating point drift in the ledger.
type Receipt struct {
	ID           uuid.UUID     `json:"id"`
	AmbassadorID uuid.UUID     `json:"ambassador_id"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	Status       ReceiptStatus `json:"status"`
	ImageKey     string        `json:"image_key"`
	FlaggedStale bool          `json:"flagged_stale"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
