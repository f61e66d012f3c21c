/**
 * @description
 * Admin review operations: ambassador profile CRUD, receipt decisions and
 * KYC decisions. Decisions return the confirmed post-mutation state so the
 * console re-renders from the server instead of patching optimistically.
 */
package app

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
)

// AmbassadorPayload is the admin-side create/update form for an
// ambassador profile.
type AmbassadorPayload struct {
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	Address        *string                `json:"address,omitempty"`
	Country        *string                `json:"country,omitempty"`
	PaymentMethods []domain.PaymentMethod `json:"payment_methods"`
}

func validateAmbassadorPayload(p AmbassadorPayload) *ValidationError {
	verr := NewValidationError()
	if strings.TrimSpace(p.FirstName) == "" {
		verr.Fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		verr.Fields["lastName"] = "Last name is required"
	}
	switch {
	case strings.TrimSpace(p.Email) == "":
		verr.Fields["email"] = "Email is required"
	case !emailPattern.MatchString(p.Email):
		verr.Fields["email"] = "Email is invalid"
	}
	if strings.TrimSpace(p.Phone) == "" {
		verr.Fields["phone"] = "Phone number is required"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// CreateAmbassador creates a profile without credentials: the ambassador
// still self-registers to obtain a login, which is why no activation
// email is sent here.
func (s *Service) CreateAmbassador(ctx context.Context, payload AmbassadorPayload) (*domain.Staff, error) {
	if verr := validateAmbassadorPayload(payload); verr != nil {
		return nil, verr
	}

	methods := payload.PaymentMethods
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	staff := &domain.Staff{
		ID:             uuid.New(),
		FirstName:      strings.TrimSpace(payload.FirstName),
		LastName:       strings.TrimSpace(payload.LastName),
		Email:          strings.ToLower(strings.TrimSpace(payload.Email)),
		Phone:          strings.TrimSpace(payload.Phone),
		Role:           domain.RoleAmbassador,
		KYCStatus:      domain.PendingKYC,
		EmailStatus:    domain.EmailPending,
		Address:        payload.Address,
		Country:        payload.Country,
		PaymentMethods: methods,
	}
	if err := s.repo.CreateStaff(ctx, staff); err != nil {
		return nil, err
	}
	log.Printf("level=info component=admin msg=\"ambassador created\" staff_id=%s", staff.ID)
	return staff, nil
}

// UpdateAmbassador rewrites the mutable profile fields of an existing
// ambassador and returns the confirmed row.
func (s *Service) UpdateAmbassador(ctx context.Context, id uuid.UUID, payload AmbassadorPayload) (*domain.Staff, error) {
	if verr := validateAmbassadorPayload(payload); verr != nil {
		return nil, verr
	}

	staff, err := s.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, err
	}
	staff.FirstName = strings.TrimSpace(payload.FirstName)
	staff.LastName = strings.TrimSpace(payload.LastName)
	staff.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	staff.Phone = strings.TrimSpace(payload.Phone)
	staff.Address = payload.Address
	staff.Country = payload.Country
	if payload.PaymentMethods != nil {
		staff.PaymentMethods = payload.PaymentMethods
	}

	if err := s.repo.UpdateStaffProfile(ctx, staff); err != nil {
		return nil, err
	}
	s.dropSession(ctx, id)
	return s.repo.GetStaffByID(ctx, id)
}

// DeleteAmbassador removes the profile; the application row follows via
// the foreign key cascade.
func (s *Service) DeleteAmbassador(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteStaff(ctx, id); err != nil {
		return err
	}
	s.dropSession(ctx, id)
	log.Printf("level=info component=admin msg=\"ambassador deleted\" staff_id=%s", id)
	return nil
}

func (s *Service) ListAmbassadors(ctx context.Context) ([]domain.Staff, error) {
	return s.repo.ListAmbassadors(ctx)
}

func (s *Service) ListReceipts(ctx context.Context) ([]domain.Receipt, error) {
	return s.repo.ListReceipts(ctx)
}

func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

func (s *Service) ListKYCApplications(ctx context.Context) ([]domain.KYCApplication, error) {
	return s.repo.ListKYCApplications(ctx)
}

func (s *Service) GetKYCApplication(ctx context.Context, id uuid.UUID) (*domain.KYCApplication, error) {
	return s.repo.GetKYCApplication(ctx, id)
}

// ApproveReceipt settles a pending receipt and returns the confirmed
// receipt plus the deposit transaction created with it.
func (s *Service) ApproveReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, *domain.Transaction, error) {
	receipt, txn, err := s.repo.ApproveReceipt(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("level=info component=admin msg=\"receipt approved\" receipt_id=%s transaction_id=%s amount=%d currency=%s",
		receipt.ID, txn.ID, txn.Amount, txn.Currency)
	return receipt, txn, nil
}

// RejectReceipt declines a pending receipt.
func (s *Service) RejectReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	receipt, err := s.repo.RejectReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=admin msg=\"receipt rejected\" receipt_id=%s", receipt.ID)
	return receipt, nil
}

// ReviewKYC records an approve/reject decision on a pending application.
// The applicant's cached session is dropped so the new KYC status takes
// effect on their next request.
func (s *Service) ReviewKYC(ctx context.Context, applicationID uuid.UUID, approve bool, reviewedBy uuid.UUID, reason *string) (*domain.KYCApplication, error) {
	status := domain.ReviewApproved
	if !approve {
		status = domain.ReviewRejected
	}
	app, err := s.repo.ReviewKYCApplication(ctx, applicationID, status, reviewedBy, reason)
	if err != nil {
		return nil, err
	}
	s.dropSession(ctx, applicationID)
	log.Printf("level=info component=admin msg=\"kyc reviewed\" application_id=%s status=%s reviewer=%s",
		applicationID, status, reviewedBy)
	return app, nil
}
