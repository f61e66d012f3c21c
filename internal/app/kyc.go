/**
 * @description
 * KYC submission: drives the workflow FSM over the parsed multipart form,
 * uploads the staged documents to their fixed per-applicant keys, then
 * writes the application row and profile patch in one repository call.
 * Upload and write failures surface to the caller as typed errors.
 */
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
)

// KYCSubmission is the parsed multipart form for one submission attempt.
// Nil files mean the slot was not re-staged; only the photo may be omitted,
// and only when a previous submission already stored one.
type KYCSubmission struct {
	Fields  KYCFields
	Photo   *domain.StagedFile
	IDFront *domain.StagedFile
	IDBack  *domain.StagedFile
}

// Fixed document keys under the applicant's namespace; resubmissions
// overwrite in place.
func kycPhotoKey(staffID uuid.UUID) string   { return fmt.Sprintf("kyc/%s/profile_photo.jpg", staffID) }
func kycIDFrontKey(staffID uuid.UUID) string { return fmt.Sprintf("kyc/%s/id_front.jpg", staffID) }
func kycIDBackKey(staffID uuid.UUID) string  { return fmt.Sprintf("kyc/%s/id_back.jpg", staffID) }

// SubmitKYC validates and persists one KYC application for the staff id.
func (s *Service) SubmitKYC(ctx context.Context, staffID uuid.UUID, submission KYCSubmission) (*domain.KYCApplication, error) {
	staff, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return nil, err
	}

	workflow := NewKYCWorkflow(s.kycDocumentMaxBytes)
	workflow.SetFields(submission.Fields)
	workflow.SetExistingPhoto(staff.PhotoKey != nil)

	slots := []struct {
		slot KYCFileSlot
		file *domain.StagedFile
	}{
		{SlotPhoto, submission.Photo},
		{SlotIDFront, submission.IDFront},
		{SlotIDBack, submission.IDBack},
	}
	for _, staged := range slots {
		if staged.file == nil {
			continue
		}
		if verr := workflow.StageFile(staged.slot, *staged.file); verr != nil {
			return nil, verr
		}
	}

	if verr := workflow.AdvancePersonal(); verr != nil {
		return nil, verr
	}
	if verr := workflow.Submit(); verr != nil {
		return nil, verr
	}

	photoKey := kycPhotoKey(staffID)
	if photo := workflow.StagedFile(SlotPhoto); photo != nil {
		if err := s.objects.Upload(ctx, photoKey, imageContentType(photo), photo.Data); err != nil {
			return nil, err
		}
	}
	idFront := workflow.StagedFile(SlotIDFront)
	if err := s.objects.Upload(ctx, kycIDFrontKey(staffID), imageContentType(idFront), idFront.Data); err != nil {
		return nil, err
	}
	idBack := workflow.StagedFile(SlotIDBack)
	if err := s.objects.Upload(ctx, kycIDBackKey(staffID), imageContentType(idBack), idBack.Data); err != nil {
		return nil, err
	}

	fields := workflow.Fields()
	application := &domain.KYCApplication{
		ID:           staffID,
		FullName:     fields.FullName,
		Email:        fields.Email,
		Phone:        fields.Phone,
		Address:      fields.Address,
		Country:      fields.Country,
		City:         fields.City,
		PostalCode:   fields.PostalCode,
		DocumentType: fields.DocumentType,
		IDFrontKey:   kycIDFrontKey(staffID),
		IDBackKey:    kycIDBackKey(staffID),
		PhotoKey:     photoKey,
		Status:       domain.ReviewPending,
	}
	if err := s.repo.SubmitKYCApplication(ctx, application); err != nil {
		return nil, err
	}
	s.dropSession(ctx, staffID)

	log.Printf("level=info component=kyc msg=\"application submitted\" staff_id=%s", staffID)
	return application, nil
}

func imageContentType(file *domain.StagedFile) string {
	if file != nil && file.ContentType != "" {
		return file.ContentType
	}
	return "image/jpeg"
}

// GetOwnKYCApplication returns the principal's application.
func (s *Service) GetOwnKYCApplication(ctx context.Context, staffID uuid.UUID) (*domain.KYCApplication, error) {
	return s.repo.GetKYCApplication(ctx, staffID)
}
