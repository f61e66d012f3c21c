package app

import (
	"testing"

	"github.com/nexapay/ambassador-service/internal/domain"
)

func validKYCFields() KYCFields {
	return KYCFields{
		FullName:     "Ada Obi",
		Email:        "ada@example.com",
		Phone:        "+2348012345678",
		Address:      "12 Marina Road",
		Country:      "Nigeria",
		City:         "Lagos",
		PostalCode:   "100001",
		DocumentType: "Passport",
	}
}

func imageFile(name string, size int64) domain.StagedFile {
	return domain.StagedFile{Name: name, ContentType: "image/jpeg", Size: size, Data: []byte("img")}
}

func stageAll(t *testing.T, w *KYCWorkflow) {
	t.Helper()
	for slot, file := range map[KYCFileSlot]domain.StagedFile{
		SlotPhoto:   imageFile("photo.jpg", 1024),
		SlotIDFront: imageFile("front.jpg", 2048),
		SlotIDBack:  imageFile("back.jpg", 2048),
	} {
		if verr := w.StageFile(slot, file); verr != nil {
			t.Fatalf("StageFile(%s) returned error: %v", slot, verr)
		}
	}
}

func TestAdvancePersonal_EachMissingFieldKeepsStepAndReportsExactlyThatField(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*KYCFields)
		wantField string
		wantMsg   string
	}{
		{"missing full name", func(f *KYCFields) { f.FullName = "  " }, "fullName", "Full name is required"},
		{"missing email", func(f *KYCFields) { f.Email = "" }, "email", "Email is required"},
		{"malformed email", func(f *KYCFields) { f.Email = "not-an-email" }, "email", "Email is invalid"},
		{"missing phone", func(f *KYCFields) { f.Phone = "" }, "phone", "Phone number is required"},
		{"missing address", func(f *KYCFields) { f.Address = "" }, "address", "Address is required"},
		{"missing country", func(f *KYCFields) { f.Country = "" }, "country", "Country is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewKYCWorkflow(5 << 20)
			fields := validKYCFields()
			tc.mutate(&fields)
			w.SetFields(fields)
			stageAll(t, w)

			verr := w.AdvancePersonal()
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Step != StepPersonalInfo {
				t.Fatalf("expected step %s, got %s", StepPersonalInfo, verr.Step)
			}
			if w.Step() != StepPersonalInfo {
				t.Fatalf("step moved to %s on failed guard", w.Step())
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("expected exactly one field error, got %v", verr.Fields)
			}
			if got := verr.Fields[tc.wantField]; got != tc.wantMsg {
				t.Fatalf("expected %q error %q, got %v", tc.wantField, tc.wantMsg, verr.Fields)
			}
		})
	}
}

func TestAdvancePersonal_RequiresStagedPhotoUnlessExisting(t *testing.T) {
	w := NewKYCWorkflow(5 << 20)
	w.SetFields(validKYCFields())

	verr := w.AdvancePersonal()
	if verr == nil {
		t.Fatal("expected photo error")
	}
	if got := verr.Fields["photo"]; got != "Profile photo is required" {
		t.Fatalf("expected photo error, got %v", verr.Fields)
	}

	// A previous submission's stored photo satisfies the guard.
	w.SetExistingPhoto(true)
	if verr := w.AdvancePersonal(); verr != nil {
		t.Fatalf("expected guard to pass with existing photo, got %v", verr)
	}
	if w.Step() != StepVerification {
		t.Fatalf("expected step %s, got %s", StepVerification, w.Step())
	}
}

func TestSubmit_MissingIDSidesSnapToVerificationWithExactlyThatFieldError(t *testing.T) {
	cases := []struct {
		name      string
		stage     []KYCFileSlot
		wantField string
		wantMsg   string
	}{
		{"missing id front", []KYCFileSlot{SlotPhoto, SlotIDBack}, "idFront", "Front side of ID is required"},
		{"missing id back", []KYCFileSlot{SlotPhoto, SlotIDFront}, "idBack", "Back side of ID is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewKYCWorkflow(5 << 20)
			w.SetFields(validKYCFields())
			for _, slot := range tc.stage {
				if verr := w.StageFile(slot, imageFile(string(slot)+".jpg", 1024)); verr != nil {
					t.Fatalf("StageFile(%s) returned error: %v", slot, verr)
				}
			}
			if verr := w.AdvancePersonal(); verr != nil {
				t.Fatalf("personal guard failed: %v", verr)
			}

			verr := w.Submit()
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Step != StepVerification {
				t.Fatalf("expected step %s, got %s", StepVerification, verr.Step)
			}
			if w.Step() != StepVerification {
				t.Fatalf("active step is %s, want %s", w.Step(), StepVerification)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("expected exactly one field error, got %v", verr.Fields)
			}
			if got := verr.Fields[tc.wantField]; got != tc.wantMsg {
				t.Fatalf("expected %q error %q, got %v", tc.wantField, tc.wantMsg, verr.Fields)
			}
		})
	}
}

func TestStageFile_OversizedFileRejectedAndPriorStateUntouched(t *testing.T) {
	w := NewKYCWorkflow(5 << 20)
	w.SetFields(validKYCFields())

	good := imageFile("front_v1.jpg", 1024)
	if verr := w.StageFile(SlotIDFront, good); verr != nil {
		t.Fatalf("staging valid file failed: %v", verr)
	}

	verr := w.StageFile(SlotIDFront, imageFile("front_v2.jpg", (5<<20)+1))
	if verr == nil {
		t.Fatal("expected oversize rejection")
	}
	if got := verr.Fields["idFront"]; got != "File size exceeds 5MB limit" {
		t.Fatalf("expected size error, got %v", verr.Fields)
	}
	staged := w.StagedFile(SlotIDFront)
	if staged == nil || staged.Name != "front_v1.jpg" {
		t.Fatalf("prior staged file was touched: %+v", staged)
	}
}

func TestStageFile_PhotoMustBeImage(t *testing.T) {
	w := NewKYCWorkflow(5 << 20)

	verr := w.StageFile(SlotPhoto, domain.StagedFile{Name: "cv.pdf", ContentType: "application/pdf", Size: 1024})
	if verr == nil {
		t.Fatal("expected content-type rejection")
	}
	if got := verr.Fields["photo"]; got != "Only image files are allowed" {
		t.Fatalf("expected image-only error, got %v", verr.Fields)
	}
	if w.StagedFile(SlotPhoto) != nil {
		t.Fatal("rejected photo was staged")
	}

	// ID sides are not restricted to images (e.g. scanned PDFs).
	if verr := w.StageFile(SlotIDFront, domain.StagedFile{Name: "front.pdf", ContentType: "application/pdf", Size: 1024}); verr != nil {
		t.Fatalf("expected non-image ID side to stage, got %v", verr)
	}
}

func TestBack_ReturnsToPersonalInfoKeepingState(t *testing.T) {
	w := NewKYCWorkflow(5 << 20)
	w.SetFields(validKYCFields())
	stageAll(t, w)

	if verr := w.AdvancePersonal(); verr != nil {
		t.Fatalf("personal guard failed: %v", verr)
	}
	w.Back()
	if w.Step() != StepPersonalInfo {
		t.Fatalf("expected step %s after Back, got %s", StepPersonalInfo, w.Step())
	}
	if w.StagedFile(SlotIDFront) == nil || w.StagedFile(SlotPhoto) == nil {
		t.Fatal("staged files lost on Back")
	}

	// Forward again and all the way through.
	if verr := w.AdvancePersonal(); verr != nil {
		t.Fatalf("personal guard failed after Back: %v", verr)
	}
	if verr := w.Submit(); verr != nil {
		t.Fatalf("Submit failed: %v", verr)
	}
	if w.Step() != StepSubmitted {
		t.Fatalf("expected step %s, got %s", StepSubmitted, w.Step())
	}
}

func TestSubmit_PersonalFailureWinsOverDocumentFailure(t *testing.T) {
	w := NewKYCWorkflow(5 << 20)
	fields := validKYCFields()
	fields.FullName = ""
	w.SetFields(fields)
	// No files staged at all: both validators would fail.

	verr := w.Submit()
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if verr.Step != StepPersonalInfo {
		t.Fatalf("expected snap to %s, got %s", StepPersonalInfo, verr.Step)
	}
	if _, ok := verr.Fields["idFront"]; ok {
		t.Fatalf("verification errors leaked into personal step report: %v", verr.Fields)
	}
}

func TestSetFields_DefaultsDocumentType(t *testing.T) {
	w := NewKYCWorkflow(5 << 20)
	fields := validKYCFields()
	fields.DocumentType = "  "
	w.SetFields(fields)
	if got := w.Fields().DocumentType; got != DefaultDocumentType {
		t.Fatalf("expected default document type %q, got %q", DefaultDocumentType, got)
	}
}
