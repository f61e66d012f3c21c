/**
 * @description
 * Deposit receipt submission. The operation is gated on the principal's
 * profile KYC status; the gate is checked server-side on every attempt so
 * a stale console cannot slip a deposit through. Accepted receipts follow
 * the same linear validate-upload-write shape as the KYC submission.
 */
package app

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
)

var supportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"JPY": true,
}

// SubmitDeposit uploads a receipt image and records the pending deposit
// claim. Rejected with ErrKYCRequired unless the profile's KYC status
// allows deposits.
func (s *Service) SubmitDeposit(ctx context.Context, staffID uuid.UUID, amountMinor int64, currency string, image domain.StagedFile) (*domain.Receipt, error) {
	staff, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !staff.KYCStatus.DepositAllowed() {
		return nil, ErrKYCRequired
	}

	if amountMinor <= 0 {
		return nil, ErrInvalidDepositAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !supportedCurrencies[currency] {
		return nil, ErrUnsupportedCurrency
	}
	if image.Size > s.receiptImageMaxBytes {
		verr := NewValidationError()
		verr.Fields["receipt"] = "File size should not exceed 10MB."
		return nil, verr
	}
	if len(image.Data) == 0 {
		verr := NewValidationError()
		verr.Fields["receipt"] = "Receipt image is required"
		return nil, verr
	}

	key := receiptKey(staffID, image.Name, time.Now())
	if err := s.objects.Upload(ctx, key, imageContentType(&image), image.Data); err != nil {
		return nil, err
	}

	receipt := &domain.Receipt{
		ID:           uuid.New(),
		AmbassadorID: staffID,
		Amount:       amountMinor,
		Currency:     currency,
		Status:       domain.ReceiptPending,
		ImageKey:     key,
	}
	if err := s.repo.CreateReceipt(ctx, receipt); err != nil {
		return nil, err
	}

	log.Printf("level=info component=deposits msg=\"receipt submitted\" staff_id=%s receipt_id=%s amount=%d currency=%s",
		staffID, receipt.ID, amountMinor, currency)
	return receipt, nil
}

// receiptKey builds receipts/<ambassadorID>/<unixts>_<filename>. The
// filename is flattened to its base name so a crafted name cannot escape
// the principal's namespace.
func receiptKey(staffID uuid.UUID, filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "receipt"
	}
	return fmt.Sprintf("receipts/%s/%d_%s", staffID, now.Unix(), base)
}

// ListOwnReceipts returns the principal's receipts, newest first.
func (s *Service) ListOwnReceipts(ctx context.Context, staffID uuid.UUID) ([]domain.Receipt, error) {
	return s.repo.ListReceiptsByAmbassador(ctx, staffID)
}

// ListOwnTransactions returns the principal's ledger rows, newest first.
func (s *Service) ListOwnTransactions(ctx context.Context, staffID uuid.UUID) ([]domain.Transaction, error) {
	return s.repo.ListTransactionsByAmbassador(ctx, staffID)
}
