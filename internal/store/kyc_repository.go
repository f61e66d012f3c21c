/**
 * @description
 * KYC application persistence. Submissions upsert by applicant id and
 * patch the staff profile in the same transaction; review decisions flip
 * the application, the profile kyc_status, and enqueue the outcome event
 * atomically.
 */
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nexapay/ambassador-service/internal/domain"
)

const kycColumns = `id, full_name, email, phone, address, country, city, postal_code,
	document_type, id_front_key, id_back_key, photo_key, status,
	submitted_at, reviewed_at, reviewed_by, rejection_reason`

func scanKYCApplication(row pgx.Row) (*domain.KYCApplication, error) {
	var (
		app    domain.KYCApplication
		status string
	)
	err := row.Scan(
		&app.ID, &app.FullName, &app.Email, &app.Phone, &app.Address,
		&app.Country, &app.City, &app.PostalCode, &app.DocumentType,
		&app.IDFrontKey, &app.IDBackKey, &app.PhotoKey, &status,
		&app.SubmittedAt, &app.ReviewedAt, &app.ReviewedBy, &app.RejectionReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if app.Status, err = domain.ParseReviewStatus(status); err != nil {
		return nil, err
	}
	return &app, nil
}

// SubmitKYCApplication upserts the application keyed by the applicant id,
// resets the profile to kyc_status=pending with the new photo key, and
// enqueues kyc.submitted, all in one transaction. Review metadata from an
// earlier decision is cleared by the resubmission.
func (r *PostgresRepository) SubmitKYCApplication(ctx context.Context, app *domain.KYCApplication) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO kyc_applications (
			id, full_name, email, phone, address, country, city, postal_code,
			document_type, id_front_key, id_back_key, photo_key, status, submitted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending', NOW())
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			country = EXCLUDED.country,
			city = EXCLUDED.city,
			postal_code = EXCLUDED.postal_code,
			document_type = EXCLUDED.document_type,
			id_front_key = EXCLUDED.id_front_key,
			id_back_key = EXCLUDED.id_back_key,
			photo_key = EXCLUDED.photo_key,
			status = 'pending',
			submitted_at = NOW(),
			reviewed_at = NULL,
			reviewed_by = NULL,
			rejection_reason = NULL
		RETURNING submitted_at
	`,
		app.ID, app.FullName, app.Email, app.Phone, app.Address, app.Country,
		app.City, app.PostalCode, app.DocumentType,
		app.IDFrontKey, app.IDBackKey, app.PhotoKey,
	).Scan(&app.SubmittedAt)
	if err != nil {
		return err
	}
	app.Status = domain.ReviewPending
	app.ReviewedAt = nil
	app.ReviewedBy = nil
	app.RejectionReason = nil

	tag, err := tx.Exec(ctx, `
		UPDATE staffs
		SET kyc_status = 'pending', photo_key = $2, address = $3, country = $4, updated_at = NOW()
		WHERE id = $1
	`, app.ID, app.PhotoKey, app.Address, app.Country)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	event := domain.KYCEvent{ApplicationID: app.ID, Status: domain.ReviewPending}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventKYCSubmitted, event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetKYCApplication(ctx context.Context, id uuid.UUID) (*domain.KYCApplication, error) {
	row := r.db.QueryRow(ctx, `SELECT `+kycColumns+` FROM kyc_applications WHERE id = $1`, id)
	return scanKYCApplication(row)
}

func (r *PostgresRepository) ListKYCApplications(ctx context.Context) ([]domain.KYCApplication, error) {
	rows, err := r.db.Query(ctx, `SELECT `+kycColumns+` FROM kyc_applications ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]domain.KYCApplication, 0)
	for rows.Next() {
		app, err := scanKYCApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// ReviewKYCApplication records an admin decision on a pending application
// and patches the applicant's profile kyc_status to match, atomically. A
// decision on an already-reviewed application fails with
// ErrApplicationNotPending.
func (r *PostgresRepository) ReviewKYCApplication(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy uuid.UUID, reason *string) (*domain.KYCApplication, error) {
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return nil, errors.New("review status must be approved or rejected")
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE kyc_applications
		SET status = $2, reviewed_at = NOW(), reviewed_by = $3, rejection_reason = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+kycColumns, id, string(status), reviewedBy, reason)
	app, err := scanKYCApplication(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Distinguish a missing application from a settled one.
			var existing string
			lookupErr := tx.QueryRow(ctx, `SELECT status FROM kyc_applications WHERE id = $1`, id).Scan(&existing)
			if lookupErr == nil {
				return nil, ErrApplicationNotPending
			}
			return nil, ErrNotFound
		}
		return nil, err
	}

	profileStatus := domain.ApprovedKYC
	routingKey := domain.EventKYCApproved
	if status == domain.ReviewRejected {
		profileStatus = domain.RejectedKYC
		routingKey = domain.EventKYCRejected
	}
	if _, err := tx.Exec(ctx, `
		UPDATE staffs SET kyc_status = $2, updated_at = NOW() WHERE id = $1
	`, id, string(profileStatus)); err != nil {
		return nil, err
	}

	event := domain.KYCEvent{ApplicationID: id, Status: status, Reason: reason}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, routingKey, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return app, nil
}
