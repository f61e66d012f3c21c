/**
 * @description
 * pgx implementation of the Repository interface: staff identity rows plus
 * the idempotent schema bootstrap. KYC, receipt and outbox methods live in
 * sibling files on the same receiver.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: queries, transactions, error inspection.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexapay/ambassador-service/internal/domain"
)

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	db            *pgxpool.Pool
	eventExchange string
}

// NewPostgresRepository creates a repository publishing outbox events on
// the given exchange.
func NewPostgresRepository(db *pgxpool.Pool, eventExchange string) *PostgresRepository {
	return &PostgresRepository{db: db, eventExchange: eventExchange}
}

// EnsureSchema creates the service tables if they do not exist. Safe to
// run on every boot.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS staffs (
			id UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			role TEXT NOT NULL,
			kyc_status TEXT NOT NULL DEFAULT 'pending',
			email_status TEXT NOT NULL DEFAULT 'pending',
			address TEXT,
			country TEXT,
			photo_key TEXT,
			payment_methods JSONB NOT NULL DEFAULT '[]'::jsonb,
			password_hash TEXT NOT NULL DEFAULT '',
			activation_token TEXT,
			activation_expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS kyc_applications (
			id UUID PRIMARY KEY REFERENCES staffs(id) ON DELETE CASCADE,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			address TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			document_type TEXT NOT NULL,
			id_front_key TEXT NOT NULL,
			id_back_key TEXT NOT NULL,
			photo_key TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			reviewed_at TIMESTAMPTZ,
			reviewed_by UUID,
			rejection_reason TEXT
		);
		CREATE TABLE IF NOT EXISTS receipts (
			id UUID PRIMARY KEY,
			ambassador_id UUID NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			image_key TEXT NOT NULL,
			flagged_stale BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			ambassador_id UUID NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			receipt_id UUID UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS event_outbox (
			id BIGSERIAL PRIMARY KEY,
			exchange TEXT NOT NULL,
			routing_key TEXT NOT NULL,
			payload JSONB NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processing_started_at TIMESTAMPTZ,
			published_at TIMESTAMPTZ,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

const staffColumns = `id, first_name, last_name, email, phone, role, kyc_status, email_status,
	address, country, photo_key, payment_methods::text, password_hash, created_at, updated_at`

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var (
		s           domain.Staff
		role        string
		kycStatus   string
		emailStatus string
		methods     string
	)
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&role, &kycStatus, &emailStatus,
		&s.Address, &s.Country, &s.PhotoKey, &methods, &s.PasswordHash,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	if s.KYCStatus, err = domain.ParseKYCStatus(kycStatus); err != nil {
		return nil, err
	}
	s.EmailStatus = domain.EmailStatus(emailStatus)
	s.PaymentMethods = []domain.PaymentMethod{}
	if methods != "" {
		if err := json.Unmarshal([]byte(methods), &s.PaymentMethods); err != nil {
			return nil, fmt.Errorf("decode payment_methods for staff %s: %w", s.ID, err)
		}
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// RegisterStaff inserts a self-registered ambassador together with the
// staff.registered and email-verification outbox events, atomically.
func (r *PostgresRepository) RegisterStaff(ctx context.Context, staff *domain.Staff, activationToken string, activationExpiresAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertStaffTx(ctx, tx, staff, &activationToken, &activationExpiresAt); err != nil {
		return err
	}

	registered := domain.StaffRegisteredEvent{
		StaffID:   staff.ID,
		Email:     staff.Email,
		Role:      staff.Role,
		CreatedAt: staff.CreatedAt,
	}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventStaffRegistered, registered); err != nil {
		return err
	}
	verification := domain.EmailVerificationRequestedEvent{
		StaffID:   staff.ID,
		Email:     staff.Email,
		Token:     activationToken,
		ExpiresAt: activationExpiresAt,
	}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventEmailVerificationRequested, verification); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateStaff inserts an admin-created profile. No activation flow and no
// events: the row starts without credentials.
func (r *PostgresRepository) CreateStaff(ctx context.Context, staff *domain.Staff) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := insertStaffTx(ctx, tx, staff, nil, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertStaffTx(ctx context.Context, tx pgx.Tx, staff *domain.Staff, activationToken *string, activationExpiresAt *time.Time) error {
	methods := staff.PaymentMethods
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	blob, err := json.Marshal(methods)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO staffs (
			id, first_name, last_name, email, phone, role, kyc_status, email_status,
			address, country, photo_key, payment_methods, password_hash,
			activation_token, activation_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15)
		RETURNING created_at, updated_at
	`,
		staff.ID, staff.FirstName, staff.LastName, staff.Email, staff.Phone,
		string(staff.Role), string(staff.KYCStatus), string(staff.EmailStatus),
		staff.Address, staff.Country, staff.PhotoKey, string(blob), staff.PasswordHash,
		activationToken, activationExpiresAt,
	).Scan(&staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// ActivateStaff consumes an activation token, marking the email verified.
func (r *PostgresRepository) ActivateStaff(ctx context.Context, token string) (*domain.Staff, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE staffs
		SET email_status = 'verified',
			activation_token = NULL,
			activation_expires_at = NULL,
			updated_at = NOW()
		WHERE activation_token = $1 AND activation_expires_at > NOW()
		RETURNING `+staffColumns, token)
	staff, err := scanStaff(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrActivationInvalid
	}
	return staff, err
}

func (r *PostgresRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	row := r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staffs WHERE id = $1`, id)
	return scanStaff(row)
}

func (r *PostgresRepository) GetStaffByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	row := r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staffs WHERE LOWER(email) = LOWER($1)`, email)
	return scanStaff(row)
}

// UpdateStaffProfile rewrites the mutable profile fields. Role, email
// status and credentials are not touched here.
func (r *PostgresRepository) UpdateStaffProfile(ctx context.Context, staff *domain.Staff) error {
	methods := staff.PaymentMethods
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	blob, err := json.Marshal(methods)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE staffs
		SET first_name = $2, last_name = $3, email = $4, phone = $5,
			address = $6, country = $7, photo_key = $8,
			payment_methods = $9::jsonb, updated_at = NOW()
		WHERE id = $1
	`,
		staff.ID, staff.FirstName, staff.LastName, staff.Email, staff.Phone,
		staff.Address, staff.Country, staff.PhotoKey, string(blob),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM staffs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAmbassadors(ctx context.Context) ([]domain.Staff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+staffColumns+`
		FROM staffs
		WHERE role = 'ambassador'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staffs := make([]domain.Staff, 0)
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staffs = append(staffs, *s)
	}
	return staffs, rows.Err()
}

// PurgeExpiredActivations deletes self-registered accounts whose
// activation window lapsed without verification. Admin-created profiles
// carry no activation token and are never touched.
func (r *PostgresRepository) PurgeExpiredActivations(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM staffs
		WHERE email_status = 'pending'
		  AND activation_token IS NOT NULL
		  AND activation_expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
