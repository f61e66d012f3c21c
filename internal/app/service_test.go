package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexapay/ambassador-service/internal/domain"
	"github.com/nexapay/ambassador-service/internal/store"
)

// fakeRepository is an in-memory store.Repository mirroring the pgx
// implementation's semantics closely enough to exercise the service.
type fakeRepository struct {
	staffs       map[uuid.UUID]*domain.Staff
	applications map[uuid.UUID]*domain.KYCApplication
	receipts     map[uuid.UUID]*domain.Receipt
	transactions []domain.Transaction
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		staffs:       map[uuid.UUID]*domain.Staff{},
		applications: map[uuid.UUID]*domain.KYCApplication{},
		receipts:     map[uuid.UUID]*domain.Receipt{},
	}
}

func (f *fakeRepository) RegisterStaff(ctx context.Context, staff *domain.Staff, token string, expiresAt time.Time) error {
	for _, existing := range f.staffs {
		if existing.Email == staff.Email {
			return store.ErrDuplicateEmail
		}
	}
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	copied := *staff
	f.staffs[staff.ID] = &copied
	return nil
}

func (f *fakeRepository) ActivateStaff(ctx context.Context, token string) (*domain.Staff, error) {
	return nil, store.ErrActivationInvalid
}

func (f *fakeRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	staff, ok := f.staffs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *staff
	return &copied, nil
}

func (f *fakeRepository) GetStaffByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	for _, staff := range f.staffs {
		if staff.Email == email {
			copied := *staff
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepository) CreateStaff(ctx context.Context, staff *domain.Staff) error {
	return f.RegisterStaff(ctx, staff, "", time.Time{})
}

func (f *fakeRepository) UpdateStaffProfile(ctx context.Context, staff *domain.Staff) error {
	if _, ok := f.staffs[staff.ID]; !ok {
		return store.ErrNotFound
	}
	copied := *staff
	f.staffs[staff.ID] = &copied
	return nil
}

func (f *fakeRepository) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.staffs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.staffs, id)
	delete(f.applications, id)
	return nil
}

func (f *fakeRepository) ListAmbassadors(ctx context.Context) ([]domain.Staff, error) {
	out := []domain.Staff{}
	for _, staff := range f.staffs {
		if staff.Role == domain.RoleAmbassador {
			out = append(out, *staff)
		}
	}
	return out, nil
}

func (f *fakeRepository) PurgeExpiredActivations(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeRepository) SubmitKYCApplication(ctx context.Context, app *domain.KYCApplication) error {
	staff, ok := f.staffs[app.ID]
	if !ok {
		return store.ErrNotFound
	}
	app.Status = domain.ReviewPending
	app.SubmittedAt = time.Now()
	copied := *app
	f.applications[app.ID] = &copied
	staff.KYCStatus = domain.PendingKYC
	photoKey := app.PhotoKey
	staff.PhotoKey = &photoKey
	return nil
}

func (f *fakeRepository) GetKYCApplication(ctx context.Context, id uuid.UUID) (*domain.KYCApplication, error) {
	app, ok := f.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (f *fakeRepository) ListKYCApplications(ctx context.Context) ([]domain.KYCApplication, error) {
	out := []domain.KYCApplication{}
	for _, app := range f.applications {
		out = append(out, *app)
	}
	return out, nil
}

func (f *fakeRepository) ReviewKYCApplication(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy uuid.UUID, reason *string) (*domain.KYCApplication, error) {
	app, ok := f.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if app.Status != domain.ReviewPending {
		return nil, store.ErrApplicationNotPending
	}
	now := time.Now()
	app.Status = status
	app.ReviewedAt = &now
	app.ReviewedBy = &reviewedBy
	app.RejectionReason = reason
	if staff, ok := f.staffs[id]; ok {
		if status == domain.ReviewApproved {
			staff.KYCStatus = domain.ApprovedKYC
		} else {
			staff.KYCStatus = domain.RejectedKYC
		}
	}
	copied := *app
	return &copied, nil
}

func (f *fakeRepository) CreateReceipt(ctx context.Context, receipt *domain.Receipt) error {
	receipt.CreatedAt = time.Now()
	receipt.UpdatedAt = receipt.CreatedAt
	copied := *receipt
	f.receipts[receipt.ID] = &copied
	return nil
}

func (f *fakeRepository) GetReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *receipt
	return &copied, nil
}

func (f *fakeRepository) ListReceipts(ctx context.Context) ([]domain.Receipt, error) {
	out := []domain.Receipt{}
	for _, receipt := range f.receipts {
		out = append(out, *receipt)
	}
	return out, nil
}

func (f *fakeRepository) ListReceiptsByAmbassador(ctx context.Context, ambassadorID uuid.UUID) ([]domain.Receipt, error) {
	out := []domain.Receipt{}
	for _, receipt := range f.receipts {
		if receipt.AmbassadorID == ambassadorID {
			out = append(out, *receipt)
		}
	}
	return out, nil
}

func (f *fakeRepository) ApproveReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, *domain.Transaction, error) {
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if receipt.Status != domain.ReceiptPending {
		return nil, nil, store.ErrReceiptNotPending
	}
	receipt.Status = domain.ReceiptApproved
	receipt.UpdatedAt = time.Now()
	txn := domain.Transaction{
		ID:           uuid.New(),
		AmbassadorID: receipt.AmbassadorID,
		Amount:       receipt.Amount,
		Currency:     receipt.Currency,
		Type:         domain.TransactionDeposit,
		Status:       domain.TransactionStatusCompleted,
		ReceiptID:    &receipt.ID,
		CreatedAt:    time.Now(),
	}
	f.transactions = append(f.transactions, txn)
	copied := *receipt
	return &copied, &txn, nil
}

func (f *fakeRepository) RejectReceipt(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if receipt.Status != domain.ReceiptPending {
		return nil, store.ErrReceiptNotPending
	}
	receipt.Status = domain.ReceiptRejected
	copied := *receipt
	return &copied, nil
}

func (f *fakeRepository) FlagStalePendingReceipts(ctx context.Context, olderThan time.Duration) ([]domain.Receipt, error) {
	return nil, nil
}

func (f *fakeRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return append([]domain.Transaction{}, f.transactions...), nil
}

func (f *fakeRepository) ListTransactionsByAmbassador(ctx context.Context, ambassadorID uuid.UUID) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	for _, txn := range f.transactions {
		if txn.AmbassadorID == ambassadorID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeRepository) ClaimOutboxMessages(ctx context.Context, limit int, staleAfterSeconds int) ([]store.OutboxMessage, error) {
	return nil, nil
}
func (f *fakeRepository) MarkOutboxPublished(ctx context.Context, id int64) error { return nil }
func (f *fakeRepository) MarkOutboxFailed(ctx context.Context, id int64, retryAfterSeconds int, reason string) error {
	return nil
}

// fakeObjectStore records uploads by key.
type fakeObjectStore struct {
	uploads map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploads: map[string][]byte{}}
}

func (f *fakeObjectStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	f.uploads[key] = data
	return nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://blob.test/" + key, nil
}

// fakeRateLimiter returns a fixed count.
type fakeRateLimiter struct {
	count int
}

func (f *fakeRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	f.count++
	return f.count, 30, nil
}

func newTestService(repo *fakeRepository, objects *fakeObjectStore) *Service {
	return NewService(repo, objects, ServiceConfig{
		JWTSecret:            "test-secret",
		AccessTokenTTL:       time.Hour,
		ActivationTTL:        48 * time.Hour,
		LoginAttemptLimit:    5,
		KYCDocumentMaxBytes:  5 << 20,
		ReceiptImageMaxBytes: 10 << 20,
	})
}

func seedAmbassador(repo *fakeRepository, kyc domain.KYCStatus) *domain.Staff {
	staff := &domain.Staff{
		ID:          uuid.New(),
		FirstName:   "Ada",
		LastName:    "Obi",
		Email:       "ada@example.com",
		Phone:       "+2348012345678",
		Role:        domain.RoleAmbassador,
		KYCStatus:   kyc,
		EmailStatus: domain.EmailVerified,
	}
	repo.staffs[staff.ID] = staff
	return staff
}

func validSubmission() KYCSubmission {
	photo := imageFile("photo.jpg", 1024)
	front := imageFile("front.jpg", 2048)
	back := imageFile("back.jpg", 2048)
	return KYCSubmission{
		Fields:  validKYCFields(),
		Photo:   &photo,
		IDFront: &front,
		IDBack:  &back,
	}
}

func TestSubmitDeposit_GatedOnProfileKYCStatus(t *testing.T) {
	cases := []struct {
		status  domain.KYCStatus
		allowed bool
	}{
		{domain.PendingKYC, false},
		{domain.RejectedKYC, false},
		{domain.VerifiedKYC, true},
		{domain.ApprovedKYC, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			repo := newFakeRepository()
			objects := newFakeObjectStore()
			service := newTestService(repo, objects)
			staff := seedAmbassador(repo, tc.status)

			receipt, err := service.SubmitDeposit(context.Background(), staff.ID, 15000, "USD", imageFile("receipt.png", 4096))
			if !tc.allowed {
				if !errors.Is(err, ErrKYCRequired) {
					t.Fatalf("expected ErrKYCRequired, got %v", err)
				}
				if len(objects.uploads) != 0 {
					t.Fatal("blocked deposit still uploaded the image")
				}
				return
			}
			if err != nil {
				t.Fatalf("SubmitDeposit returned error: %v", err)
			}
			if receipt.Status != domain.ReceiptPending {
				t.Fatalf("expected pending receipt, got %s", receipt.Status)
			}
			wantPrefix := "receipts/" + staff.ID.String() + "/"
			if !strings.HasPrefix(receipt.ImageKey, wantPrefix) {
				t.Fatalf("image key %q does not start with %q", receipt.ImageKey, wantPrefix)
			}
			if !strings.HasSuffix(receipt.ImageKey, "_receipt.png") {
				t.Fatalf("image key %q does not keep the original filename", receipt.ImageKey)
			}
			if _, ok := objects.uploads[receipt.ImageKey]; !ok {
				t.Fatalf("image was not uploaded under %q", receipt.ImageKey)
			}
		})
	}
}

func TestSubmitDeposit_RejectsOversizedImage(t *testing.T) {
	repo := newFakeRepository()
	objects := newFakeObjectStore()
	service := newTestService(repo, objects)
	staff := seedAmbassador(repo, domain.ApprovedKYC)

	_, err := service.SubmitDeposit(context.Background(), staff.ID, 15000, "USD", imageFile("big.png", (10<<20)+1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := verr.Fields["receipt"]; got != "File size should not exceed 10MB." {
		t.Fatalf("expected size error, got %v", verr.Fields)
	}
	if len(objects.uploads) != 0 {
		t.Fatal("oversized image was uploaded")
	}
}

func TestSubmitDeposit_ValidatesAmountAndCurrency(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())
	staff := seedAmbassador(repo, domain.ApprovedKYC)

	if _, err := service.SubmitDeposit(context.Background(), staff.ID, 0, "USD", imageFile("r.png", 1)); !errors.Is(err, ErrInvalidDepositAmount) {
		t.Fatalf("expected ErrInvalidDepositAmount, got %v", err)
	}
	if _, err := service.SubmitDeposit(context.Background(), staff.ID, 100, "NGN", imageFile("r.png", 1)); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestSubmitKYC_PersistsApplicationKeyedByStaffID(t *testing.T) {
	repo := newFakeRepository()
	objects := newFakeObjectStore()
	service := newTestService(repo, objects)
	staff := seedAmbassador(repo, domain.RejectedKYC)

	application, err := service.SubmitKYC(context.Background(), staff.ID, validSubmission())
	if err != nil {
		t.Fatalf("SubmitKYC returned error: %v", err)
	}
	if application.ID != staff.ID {
		t.Fatalf("application keyed by %s, want staff id %s", application.ID, staff.ID)
	}
	if application.Status != domain.ReviewPending {
		t.Fatalf("expected pending application, got %s", application.Status)
	}
	if repo.staffs[staff.ID].KYCStatus != domain.PendingKYC {
		t.Fatalf("profile kyc status not reset to pending, got %s", repo.staffs[staff.ID].KYCStatus)
	}

	base := "kyc/" + staff.ID.String() + "/"
	for _, key := range []string{base + "profile_photo.jpg", base + "id_front.jpg", base + "id_back.jpg"} {
		if _, ok := objects.uploads[key]; !ok {
			t.Fatalf("expected upload at %q, have %v", key, objects.uploads)
		}
	}

	// Resubmission overwrites the same application row.
	if _, err := service.SubmitKYC(context.Background(), staff.ID, validSubmission()); err != nil {
		t.Fatalf("resubmission returned error: %v", err)
	}
	if len(repo.applications) != 1 {
		t.Fatalf("expected one application after resubmission, got %d", len(repo.applications))
	}
}

func TestSubmitKYC_ValidationFailureUploadsNothing(t *testing.T) {
	repo := newFakeRepository()
	objects := newFakeObjectStore()
	service := newTestService(repo, objects)
	staff := seedAmbassador(repo, domain.PendingKYC)

	submission := validSubmission()
	submission.IDBack = nil

	_, err := service.SubmitKYC(context.Background(), staff.ID, submission)
	var verr *KYCValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected KYC validation error, got %v", err)
	}
	if verr.Step != StepVerification {
		t.Fatalf("expected snap to %s, got %s", StepVerification, verr.Step)
	}
	if len(objects.uploads) != 0 {
		t.Fatalf("failed submission still uploaded files: %v", objects.uploads)
	}
	if len(repo.applications) != 0 {
		t.Fatal("failed submission still wrote an application")
	}
}

func TestLogin_ErrorTaxonomy(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	staff := seedAmbassador(repo, domain.ApprovedKYC)
	staff.PasswordHash = string(hash)

	unverified := &domain.Staff{
		ID:           uuid.New(),
		FirstName:    "Ben",
		LastName:     "Eze",
		Email:        "ben@example.com",
		Phone:        "+2348000000000",
		Role:         domain.RoleAmbassador,
		KYCStatus:    domain.PendingKYC,
		EmailStatus:  domain.EmailPending,
		PasswordHash: string(hash),
	}
	repo.staffs[unverified.ID] = unverified

	cases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"malformed email", "not-an-email", "hunter22", ErrMalformedEmail},
		{"unknown user", "ghost@example.com", "hunter22", ErrUnknownUser},
		{"wrong password", "ada@example.com", "wrong", ErrWrongCredential},
		{"unverified email", "ben@example.com", "hunter22", ErrEmailNotVerified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.Login(context.Background(), tc.email, tc.password); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	result, err := service.Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("valid login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}
	if result.Session.UID != staff.ID || result.Session.Role != domain.RoleAmbassador {
		t.Fatalf("unexpected session: %+v", result.Session)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())
	service.SetRateLimiter(&fakeRateLimiter{count: 5})

	staff := seedAmbassador(repo, domain.ApprovedKYC)
	_ = staff

	if _, err := service.Login(context.Background(), "ada@example.com", "whatever"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestApproveReceipt_SecondApprovalFails(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())
	staff := seedAmbassador(repo, domain.ApprovedKYC)

	receipt, err := service.SubmitDeposit(context.Background(), staff.ID, 25000, "EUR", imageFile("r.png", 64))
	if err != nil {
		t.Fatalf("SubmitDeposit returned error: %v", err)
	}

	approved, txn, err := service.ApproveReceipt(context.Background(), receipt.ID)
	if err != nil {
		t.Fatalf("ApproveReceipt returned error: %v", err)
	}
	if approved.Status != domain.ReceiptApproved {
		t.Fatalf("expected approved receipt, got %s", approved.Status)
	}
	if txn.Type != domain.TransactionDeposit || txn.Status != domain.TransactionStatusCompleted {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	if txn.Amount != receipt.Amount || txn.Currency != receipt.Currency || txn.AmbassadorID != receipt.AmbassadorID {
		t.Fatalf("transaction does not match receipt: %+v vs %+v", txn, receipt)
	}

	if _, _, err := service.ApproveReceipt(context.Background(), receipt.ID); !errors.Is(err, store.ErrReceiptNotPending) {
		t.Fatalf("expected ErrReceiptNotPending on second approval, got %v", err)
	}
	txns, _ := repo.ListTransactions(context.Background())
	if len(txns) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(txns))
	}
}

func TestAmbassadorDashboard_AggregatesAndGate(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())
	staff := seedAmbassador(repo, domain.PendingKYC)

	dash, err := service.AmbassadorDashboard(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("AmbassadorDashboard returned error: %v", err)
	}
	if dash.DepositEnabled {
		t.Fatal("expected deposits disabled for pending kyc")
	}

	// Approve KYC, submit and approve a deposit, and re-read.
	repo.staffs[staff.ID].KYCStatus = domain.ApprovedKYC
	receipt, err := service.SubmitDeposit(context.Background(), staff.ID, 40000, "USD", imageFile("r.png", 64))
	if err != nil {
		t.Fatalf("SubmitDeposit returned error: %v", err)
	}
	if _, _, err := service.ApproveReceipt(context.Background(), receipt.ID); err != nil {
		t.Fatalf("ApproveReceipt returned error: %v", err)
	}

	dash, err = service.AmbassadorDashboard(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("AmbassadorDashboard returned error: %v", err)
	}
	if !dash.DepositEnabled {
		t.Fatal("expected deposits enabled for approved kyc")
	}
	if dash.TotalDeposits != 40000 {
		t.Fatalf("expected total deposits 40000, got %d", dash.TotalDeposits)
	}
	if dash.ApprovedReceipts != 1 || dash.PendingReceipts != 0 {
		t.Fatalf("unexpected receipt counts: %+v", dash)
	}
}

func TestFileURL_NamespaceAuthorization(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())

	uid := uuid.New()
	other := uuid.New()
	ambassador := &domain.Session{UID: uid, Role: domain.RoleAmbassador}
	admin := &domain.Session{UID: uuid.New(), Role: domain.RoleAdmin}

	if _, err := service.FileURL(context.Background(), ambassador, "kyc/"+uid.String()+"/id_front.jpg"); err != nil {
		t.Fatalf("own kyc key rejected: %v", err)
	}
	if _, err := service.FileURL(context.Background(), ambassador, "receipts/"+uid.String()+"/1_r.png"); err != nil {
		t.Fatalf("own receipt key rejected: %v", err)
	}
	if _, err := service.FileURL(context.Background(), ambassador, "kyc/"+other.String()+"/id_front.jpg"); !errors.Is(err, ErrForbiddenFile) {
		t.Fatalf("foreign key allowed: %v", err)
	}
	if _, err := service.FileURL(context.Background(), ambassador, "kyc/../secrets"); !errors.Is(err, ErrForbiddenFile) {
		t.Fatalf("traversal key allowed: %v", err)
	}
	if _, err := service.FileURL(context.Background(), admin, "kyc/"+other.String()+"/id_front.jpg"); err != nil {
		t.Fatalf("admin access rejected: %v", err)
	}
	if _, err := service.FileURL(context.Background(), nil, "kyc/x"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("nil principal allowed: %v", err)
	}
}

func TestRegister_ValidationAndDuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, newFakeObjectStore())

	_, err := service.Register(context.Background(), RegistrationRequest{Email: "bad", Password: "123"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for field, want := range map[string]string{
		"firstName": "First name is required",
		"lastName":  "Last name is required",
		"email":     "Email is invalid",
		"phone":     "Phone number is required",
		"password":  "Password must be at least 6 characters",
	} {
		if got := verr.Fields[field]; got != want {
			t.Fatalf("field %s: got %q, want %q", field, got, verr.Fields)
		}
	}

	req := RegistrationRequest{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "Ada@Example.com",
		Phone:     "+2348012345678",
		Password:  "hunter22",
	}
	staff, err := service.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if staff.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", staff.Email)
	}
	if staff.Role != domain.RoleAmbassador || staff.KYCStatus != domain.PendingKYC || staff.EmailStatus != domain.EmailPending {
		t.Fatalf("unexpected new staff defaults: %+v", staff)
	}

	_, err = service.Register(context.Background(), req)
	if !errors.As(err, &verr) || verr.Fields["email"] != "Email is already in use" {
		t.Fatalf("expected duplicate email validation error, got %v", err)
	}
}

func TestReviewKYC_PatchesProfileAndRejectsSecondDecision(t *testing.T) {
	repo := newFakeRepository()
	objects := newFakeObjectStore()
	service := newTestService(repo, objects)
	staff := seedAmbassador(repo, domain.PendingKYC)
	reviewer := uuid.New()

	if _, err := service.SubmitKYC(context.Background(), staff.ID, validSubmission()); err != nil {
		t.Fatalf("SubmitKYC returned error: %v", err)
	}

	app, err := service.ReviewKYC(context.Background(), staff.ID, true, reviewer, nil)
	if err != nil {
		t.Fatalf("ReviewKYC returned error: %v", err)
	}
	if app.Status != domain.ReviewApproved {
		t.Fatalf("expected approved application, got %s", app.Status)
	}
	if repo.staffs[staff.ID].KYCStatus != domain.ApprovedKYC {
		t.Fatalf("profile not patched, got %s", repo.staffs[staff.ID].KYCStatus)
	}

	if _, err := service.ReviewKYC(context.Background(), staff.ID, false, reviewer, nil); !errors.Is(err, store.ErrApplicationNotPending) {
		t.Fatalf("expected ErrApplicationNotPending, got %v", err)
	}
}
