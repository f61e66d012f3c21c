/**
 * @description
 * Data access contract for the ambassador service. The app layer depends on
 * this interface only; the pgx implementation lives alongside it. Mutations
 * that must be observable downstream (registration, KYC submission, review
 * decisions) enqueue their domain event in the same database transaction
 * via the event_outbox table.
 *
 * @dependencies
 * - github.com/google/uuid
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a staff insert hits the unique
	// email constraint.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrReceiptNotPending is returned when a review decision targets a
	// receipt that is no longer pending.
	ErrReceiptNotPending = errors.New("receipt is not pending")
	// ErrApplicationNotPending is returned when a review decision targets
	// a KYC application that is no longer pending.
	ErrApplicationNotPending = errors.New("kyc application is not pending")
	// ErrActivationInvalid is returned when an activation token is unknown
	// or past its expiry.
	ErrActivationInvalid = errors.New("activation token is invalid or expired")
)

// OutboxMessage is one claimed event_outbox row awaiting publication.
type OutboxMessage struct {
	ID         int64
	Exchange   string
	RoutingKey string
	Payload    []byte
	Attempts   int
}

// Repository is the full persistence surface of the service.
type Repository interface {
	// Staff identity and profiles.
	RegisterStaff(ctx context.Context, staff *domain.Staff, activationToken string, activationExpiresAt time.Time) error
	ActivateStaff(ctx context.Context, token string) (*domain.Staff, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error)
	GetStaffByEmail(ctx context.Context, email string) (*domain.Staff, error)
	CreateStaff(ctx context.Context, staff *domain.Staff) error
	UpdateStaffProfile(ctx context.Context, staff *domain.Staff) error
	DeleteStaff(ctx context.Context, id uuid.UUID) error
	ListAmbassadors(ctx context.Context) ([]domain.Staff, error)
	PurgeExpiredActivations(ctx context.Context) (int64, error)

	// KYC applications (keyed by applicant staff id, upsert on resubmit).
	SubmitKYCApplication(ctx context.Context, app *domain.KYCApplication) error
	GetKYCApplication(ctx context.Context, id uuid.UUID) (*domain.KYCApplication, error)
	ListKYCApplications(ctx context.Context) ([]domain.KYCApplication, error)
	ReviewKYCApplication(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy uuid.UUID, reason *string) (*domain.KYCApplication, error)

	// Deposit receipts and the ledger.
	CreateReceipt(ctx context.Context, receipt *domain.Receipt) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error)
	ListReceipts(ctx context.Context) ([]domain.Receipt, error)
	ListReceiptsByAmbassador(ctx context.Context, ambassadorID uuid.UUID) ([]domain.Receipt, error)
	ApproveReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, *domain.Transaction, error)
	RejectReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error)
	FlagStalePendingReceipts(ctx context.Context, olderThan time.Duration) ([]domain.Receipt, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListTransactionsByAmbassador(ctx context.Context, ambassadorID uuid.UUID) ([]domain.Transaction, error)

	// Transactional outbox.
	ClaimOutboxMessages(ctx context.Context, limit int, staleAfterSeconds int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, id int64) error
	MarkOutboxFailed(ctx context.Context, id int64, retryAfterSeconds int, reason string) error
}
