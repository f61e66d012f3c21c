/**
 * @description
 * Finite-state machine for the multi-step KYC submission: PersonalInfo ->
 * Verification -> Submitted. Transitions are guarded by validators that
 * report per-field errors; a failed guard leaves the state and all staged
 * files untouched. The machine is pure in-memory logic so the whole
 * workflow is testable without a database or blob store.
 */
package app

import (
	"regexp"
	"strings"

	"github.com/nexapay/ambassador-service/internal/domain"
)

// KYCStep is the active step of the submission form.
type KYCStep string

const (
	StepPersonalInfo KYCStep = "personal_info"
	StepVerification KYCStep = "verification"
	StepSubmitted    KYCStep = "submitted"
)

// KYCFileSlot names one of the three staged uploads.
type KYCFileSlot string

const (
	SlotPhoto   KYCFileSlot = "photo"
	SlotIDFront KYCFileSlot = "idFront"
	SlotIDBack  KYCFileSlot = "idBack"
)

// KYCFields are the text inputs of the form.
type KYCFields struct {
	FullName     string
	Email        string
	Phone        string
	Address      string
	Country      string
	City         string
	PostalCode   string
	DocumentType string
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// DefaultDocumentType is used when the form leaves the selector untouched.
const DefaultDocumentType = "Passport"

// KYCWorkflow drives one submission attempt. hasExistingPhoto lets a
// resubmission pass the photo guard without re-staging an unchanged photo.
type KYCWorkflow struct {
	step             KYCStep
	fields           KYCFields
	photo            *domain.StagedFile
	idFront          *domain.StagedFile
	idBack           *domain.StagedFile
	hasExistingPhoto bool
	maxDocumentBytes int64
}

func NewKYCWorkflow(maxDocumentBytes int64) *KYCWorkflow {
	return &KYCWorkflow{step: StepPersonalInfo, maxDocumentBytes: maxDocumentBytes}
}

func (w *KYCWorkflow) Step() KYCStep { return w.step }

func (w *KYCWorkflow) SetFields(fields KYCFields) {
	if strings.TrimSpace(fields.DocumentType) == "" {
		fields.DocumentType = DefaultDocumentType
	}
	w.fields = fields
}

func (w *KYCWorkflow) Fields() KYCFields { return w.fields }

// SetExistingPhoto marks that the applicant already has a stored profile
// photo from a previous submission.
func (w *KYCWorkflow) SetExistingPhoto(has bool) { w.hasExistingPhoto = has }

func (w *KYCWorkflow) StagedFile(slot KYCFileSlot) *domain.StagedFile {
	switch slot {
	case SlotPhoto:
		return w.photo
	case SlotIDFront:
		return w.idFront
	case SlotIDBack:
		return w.idBack
	default:
		return nil
	}
}

// StageFile validates and stages one upload. A rejected file leaves the
// previously staged file for that slot in place.
func (w *KYCWorkflow) StageFile(slot KYCFileSlot, file domain.StagedFile) *KYCValidationError {
	if file.Size > w.maxDocumentBytes {
		return &KYCValidationError{
			Step:   w.stepForSlot(slot),
			Fields: map[string]string{string(slot): "File size exceeds 5MB limit"},
		}
	}
	if slot == SlotPhoto && !strings.HasPrefix(file.ContentType, "image/") {
		return &KYCValidationError{
			Step:   StepPersonalInfo,
			Fields: map[string]string{string(slot): "Only image files are allowed"},
		}
	}

	staged := file
	switch slot {
	case SlotPhoto:
		w.photo = &staged
	case SlotIDFront:
		w.idFront = &staged
	case SlotIDBack:
		w.idBack = &staged
	}
	return nil
}

func (w *KYCWorkflow) stepForSlot(slot KYCFileSlot) KYCStep {
	if slot == SlotPhoto {
		return StepPersonalInfo
	}
	return StepVerification
}

// AdvancePersonal moves PersonalInfo -> Verification when the personal
// guard passes. On failure the step does not move and exactly the failing
// fields carry errors.
func (w *KYCWorkflow) AdvancePersonal() *KYCValidationError {
	if w.step != StepPersonalInfo {
		return nil
	}
	if fields := w.validatePersonal(); len(fields) > 0 {
		return &KYCValidationError{Step: StepPersonalInfo, Fields: fields}
	}
	w.step = StepVerification
	return nil
}

// Back moves Verification -> PersonalInfo unconditionally. Staged files
// and fields survive the move.
func (w *KYCWorkflow) Back() {
	if w.step == StepVerification {
		w.step = StepPersonalInfo
	}
}

// Submit runs both guards. On failure the active step snaps to the first
// failing step and its field errors are reported; nothing is partially
// submitted.
func (w *KYCWorkflow) Submit() *KYCValidationError {
	if fields := w.validatePersonal(); len(fields) > 0 {
		w.step = StepPersonalInfo
		return &KYCValidationError{Step: StepPersonalInfo, Fields: fields}
	}
	if fields := w.validateDocuments(); len(fields) > 0 {
		w.step = StepVerification
		return &KYCValidationError{Step: StepVerification, Fields: fields}
	}
	w.step = StepSubmitted
	return nil
}

func (w *KYCWorkflow) validatePersonal() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(w.fields.FullName) == "" {
		fields["fullName"] = "Full name is required"
	}
	switch {
	case strings.TrimSpace(w.fields.Email) == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(w.fields.Email):
		fields["email"] = "Email is invalid"
	}
	if strings.TrimSpace(w.fields.Phone) == "" {
		fields["phone"] = "Phone number is required"
	}
	if strings.TrimSpace(w.fields.Address) == "" {
		fields["address"] = "Address is required"
	}
	if strings.TrimSpace(w.fields.Country) == "" {
		fields["country"] = "Country is required"
	}
	if w.photo == nil && !w.hasExistingPhoto {
		fields["photo"] = "Profile photo is required"
	}
	return fields
}

func (w *KYCWorkflow) validateDocuments() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(w.fields.DocumentType) == "" {
		fields["documentType"] = "Document type is required"
	}
	if w.idFront == nil {
		fields["idFront"] = "Front side of ID is required"
	}
	if w.idBack == nil {
		fields["idBack"] = "Back side of ID is required"
	}
	return fields
}
