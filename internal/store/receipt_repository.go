/**
 * @description
 * Deposit receipt and ledger persistence. ApproveReceipt is the critical
 * path: the status flip is guarded by status='pending' and the deposit
 * transaction is inserted in the same database transaction, so a receipt
 * can never settle twice or yield two ledger rows.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nexapay/ambassador-service/internal/domain"
)

const receiptColumns = `id, ambassador_id, amount, currency, status, image_key, flagged_stale, created_at, updated_at`

func scanReceipt(row pgx.Row) (*domain.Receipt, error) {
	var (
		rc     domain.Receipt
		status string
	)
	err := row.Scan(
		&rc.ID, &rc.AmbassadorID, &rc.Amount, &rc.Currency, &status,
		&rc.ImageKey, &rc.FlaggedStale, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rc.Status, err = domain.ParseReceiptStatus(status); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *PostgresRepository) CreateReceipt(ctx context.Context, receipt *domain.Receipt) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO receipts (id, ambassador_id, amount, currency, status, image_key)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING created_at, updated_at
	`,
		receipt.ID, receipt.AmbassadorID, receipt.Amount, receipt.Currency, receipt.ImageKey,
	).Scan(&receipt.CreatedAt, &receipt.UpdatedAt)
}

func (r *PostgresRepository) GetReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	row := r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	return scanReceipt(row)
}

func (r *PostgresRepository) ListReceipts(ctx context.Context) ([]domain.Receipt, error) {
	return r.listReceipts(ctx, `SELECT `+receiptColumns+` FROM receipts ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListReceiptsByAmbassador(ctx context.Context, ambassadorID uuid.UUID) ([]domain.Receipt, error) {
	return r.listReceipts(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE ambassador_id = $1 ORDER BY created_at DESC`, ambassadorID)
}

func (r *PostgresRepository) listReceipts(ctx context.Context, query string, args ...any) ([]domain.Receipt, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]domain.Receipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *rc)
	}
	return receipts, rows.Err()
}

// ApproveReceipt flips a pending receipt to approved and inserts the
// matching completed deposit in one transaction. A second approval, or an
// approval racing a rejection, fails with ErrReceiptNotPending.
func (r *PostgresRepository) ApproveReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, *domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE receipts
		SET status = 'approved', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+receiptColumns, id)
	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, r.classifyMissingReceipt(ctx, tx, id)
		}
		return nil, nil, err
	}

	txn := &domain.Transaction{
		ID:           uuid.New(),
		AmbassadorID: receipt.AmbassadorID,
		Amount:       receipt.Amount,
		Currency:     receipt.Currency,
		Type:         domain.TransactionDeposit,
		Status:       domain.TransactionStatusCompleted,
		ReceiptID:    &receipt.ID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (id, ambassador_id, amount, currency, type, status, receipt_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`,
		txn.ID, txn.AmbassadorID, txn.Amount, txn.Currency,
		string(txn.Type), string(txn.Status), txn.ReceiptID,
	).Scan(&txn.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, ErrReceiptNotPending
		}
		return nil, nil, err
	}

	approved := domain.ReceiptEvent{
		ReceiptID:    receipt.ID,
		AmbassadorID: receipt.AmbassadorID,
		Amount:       receipt.Amount,
		Currency:     receipt.Currency,
		Status:       domain.ReceiptApproved,
	}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventReceiptApproved, approved); err != nil {
		return nil, nil, err
	}
	created := domain.TransactionCreatedEvent{
		TransactionID: txn.ID,
		AmbassadorID:  txn.AmbassadorID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Type:          txn.Type,
	}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventTransactionCreated, created); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return receipt, txn, nil
}

// RejectReceipt flips a pending receipt to rejected. No ledger row is
// written.
func (r *PostgresRepository) RejectReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE receipts
		SET status = 'rejected', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+receiptColumns, id)
	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, r.classifyMissingReceipt(ctx, tx, id)
		}
		return nil, err
	}

	rejected := domain.ReceiptEvent{
		ReceiptID:    receipt.ID,
		AmbassadorID: receipt.AmbassadorID,
		Amount:       receipt.Amount,
		Currency:     receipt.Currency,
		Status:       domain.ReceiptRejected,
	}
	if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventReceiptRejected, rejected); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (r *PostgresRepository) classifyMissingReceipt(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM receipts WHERE id = $1`, id).Scan(&status); err != nil {
		return ErrNotFound
	}
	return ErrReceiptNotPending
}

// FlagStalePendingReceipts marks pending receipts older than the cutoff
// and enqueues a receipt.stale event for each, so stuck reviews surface
// to admins. Already-flagged receipts are skipped.
func (r *PostgresRepository) FlagStalePendingReceipts(ctx context.Context, olderThan time.Duration) ([]domain.Receipt, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE receipts
		SET flagged_stale = TRUE, updated_at = NOW()
		WHERE status = 'pending'
		  AND flagged_stale = FALSE
		  AND created_at < NOW() - ($1 * INTERVAL '1 second')
		RETURNING `+receiptColumns, int64(olderThan.Seconds()))
	if err != nil {
		return nil, err
	}
	flagged := make([]domain.Receipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		flagged = append(flagged, *rc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, rc := range flagged {
		event := domain.ReceiptEvent{
			ReceiptID:    rc.ID,
			AmbassadorID: rc.AmbassadorID,
			Amount:       rc.Amount,
			Currency:     rc.Currency,
			Status:       rc.Status,
		}
		if err := enqueueEventTx(ctx, tx, r.eventExchange, domain.EventReceiptStale, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return flagged, nil
}

const transactionColumns = `id, ambassador_id, amount, currency, type, status, receipt_id, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn      domain.Transaction
		txType   string
		txStatus string
	)
	err := row.Scan(
		&txn.ID, &txn.AmbassadorID, &txn.Amount, &txn.Currency,
		&txType, &txStatus, &txn.ReceiptID, &txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	txn.Type = domain.TransactionType(txType)
	txn.Status = domain.TransactionStatus(txStatus)
	return &txn, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return r.listTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListTransactionsByAmbassador(ctx context.Context, ambassadorID uuid.UUID) ([]domain.Transaction, error) {
	return r.listTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE ambassador_id = $1 ORDER BY created_at DESC`, ambassadorID)
}

func (r *PostgresRepository) listTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}
