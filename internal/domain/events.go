/**
 * @description
 * Payloads published on the ambassador.events topic exchange. Every event
 * is written to the transactional outbox in the same database transaction
 * as the state change it describes, then delivered by the dispatcher.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys on the ambassador.events exchange.
const (
	EventStaffRegistered            = "staff.registered"
	EventEmailVerificationRequested = "staff.email.verification.requested"
	EventKYCSubmitted               = "kyc.submitted"
	EventKYCApproved                = "kyc.approved"
	EventKYCRejected                = "kyc.rejected"
	EventReceiptApproved            = "receipt.approved"
	EventReceiptRejected            = "receipt.rejected"
	EventReceiptStale               = "receipt.stale"
	EventTransactionCreated         = "transaction.created"
)

// StaffRegisteredEvent announces a new self-registered ambassador.
type StaffRegisteredEvent struct {
	StaffID   uuid.UUID `json:"staff_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailVerificationRequestedEvent asks the mailer to deliver an
// activation link. The token is single-use and expires server-side.
type EmailVerificationRequestedEvent struct {
	StaffID   uuid.UUID `json:"staff_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KYCEvent describes a submission or a review decision on an application.
type KYCEvent struct {
	ApplicationID uuid.UUID    `json:"application_id"`
	Status        ReviewStatus `json:"status"`
	Reason        *string      `json:"reason,omitempty"`
}

// ReceiptEvent describes a review decision on a deposit receipt, or a
// pending receipt flagged as stale by the housekeeping job.
type ReceiptEvent struct {
	ReceiptID    uuid.UUID     `json:"receipt_id"`
	AmbassadorID uuid.UUID     `json:"ambassador_id"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	Status       ReceiptStatus `json:"status"`
}

// TransactionCreatedEvent announces a new ledger row.
type TransactionCreatedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AmbassadorID  uuid.UUID       `json:"ambassador_id"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Type          TransactionType `json:"type"`
}
