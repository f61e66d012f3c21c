/**
 * @description
 * Core business logic of the ambassador console backend. The Service
 * orchestrates the repository, blob store, session cache and rate limiter;
 * every failure is a typed error the API layer translates, never a
 * swallowed one. Redis-backed collaborators are optional: a nil cache or
 * limiter degrades to DB-only resolution and unlimited logins.
 *
 * @dependencies
 * - internal/store: persistence contract.
 * - github.com/google/uuid
 */
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
	"github.com/nexapay/ambassador-service/internal/store"
)

// ObjectStore is the blob-store surface the service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// SessionCache is the warm-start principal cache plus the logout token
// denylist. Implementations must treat a miss as (nil, nil).
type SessionCache interface {
	Get(ctx context.Context, uid uuid.UUID) (*domain.Session, error)
	Set(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, uid uuid.UUID) error
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RateLimiter counts attempts in a fixed window.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// ServiceConfig carries the tunables the Service needs from the
// environment.
type ServiceConfig struct {
	JWTSecret            string
	AccessTokenTTL       time.Duration
	ActivationTTL        time.Duration
	LoginAttemptLimit    int
	KYCDocumentMaxBytes  int64
	ReceiptImageMaxBytes int64
}

// Service implements the console's operations.
type Service struct {
	repo                 store.Repository
	objects              ObjectStore
	sessions             SessionCache
	limiter              RateLimiter
	jwtSecret            []byte
	accessTokenTTL       time.Duration
	activationTTL        time.Duration
	loginAttemptLimit    int
	kycDocumentMaxBytes  int64
	receiptImageMaxBytes int64
}

func NewService(repo store.Repository, objects ObjectStore, cfg ServiceConfig) *Service {
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	activationTTL := cfg.ActivationTTL
	if activationTTL <= 0 {
		activationTTL = 48 * time.Hour
	}
	kycMax := cfg.KYCDocumentMaxBytes
	if kycMax <= 0 {
		kycMax = 5 << 20
	}
	receiptMax := cfg.ReceiptImageMaxBytes
	if receiptMax <= 0 {
		receiptMax = 10 << 20
	}

	return &Service{
		repo:                 repo,
		objects:              objects,
		jwtSecret:            []byte(cfg.JWTSecret),
		accessTokenTTL:       accessTTL,
		activationTTL:        activationTTL,
		loginAttemptLimit:    cfg.LoginAttemptLimit,
		kycDocumentMaxBytes:  kycMax,
		receiptImageMaxBytes: receiptMax,
	}
}

// SetSessionCache wires the optional redis session cache.
func (s *Service) SetSessionCache(cache SessionCache) { s.sessions = cache }

// SetRateLimiter wires the optional login rate limiter.
func (s *Service) SetRateLimiter(limiter RateLimiter) { s.limiter = limiter }

// AmbassadorDashboard assembles the signed-in ambassador's home view. The
// aggregates are computed by a linear scan over the principal's own rows.
func (s *Service) AmbassadorDashboard(ctx context.Context, staffID uuid.UUID) (*domain.AmbassadorDashboard, error) {
	staff, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.repo.ListReceiptsByAmbassador(ctx, staffID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.ListTransactionsByAmbassador(ctx, staffID)
	if err != nil {
		return nil, err
	}

	dash := &domain.AmbassadorDashboard{
		Staff:          staff,
		Receipts:       receipts,
		Transactions:   transactions,
		DepositEnabled: staff.KYCStatus.DepositAllowed(),
	}
	for _, rc := range receipts {
		switch rc.Status {
		case domain.ReceiptPending:
			dash.PendingReceipts++
		case domain.ReceiptApproved:
			dash.ApprovedReceipts++
		}
	}
	for _, txn := range transactions {
		if txn.Type == domain.TransactionDeposit && txn.Status == domain.TransactionStatusCompleted {
			dash.TotalDeposits += txn.Amount
		}
	}
	return dash, nil
}

// AdminDashboard assembles the reviewer's program-wide overview.
func (s *Service) AdminDashboard(ctx context.Context) (*domain.AdminDashboard, error) {
	ambassadors, err := s.repo.ListAmbassadors(ctx)
	if err != nil {
		return nil, err
	}
	receipts, err := s.repo.ListReceipts(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	dash := &domain.AdminDashboard{
		TotalAmbassadors:  len(ambassadors),
		TotalTransactions: len(transactions),
	}
	for _, rc := range receipts {
		if rc.Status == domain.ReceiptPending {
			dash.PendingReceipts++
		}
	}
	for _, txn := range transactions {
		if txn.Type == domain.TransactionDeposit && txn.Status == domain.TransactionStatusCompleted {
			dash.TotalDeposits += txn.Amount
		}
	}
	return dash, nil
}

// FileURL resolves a storage key to a presigned download URL. Admins may
// resolve any key; an ambassador only keys inside their own namespace
// (kyc/<uid>/... or receipts/<uid>/...).
func (s *Service) FileURL(ctx context.Context, principal *domain.Session, key string) (string, error) {
	if principal == nil {
		return "", ErrUnauthenticated
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") {
		return "", ErrForbiddenFile
	}
	if principal.Role != domain.RoleAdmin {
		allowed := false
		for _, prefix := range []string{"kyc/", "receipts/"} {
			if strings.HasPrefix(key, prefix+principal.UID.String()+"/") {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", ErrForbiddenFile
		}
	}
	url, err := s.objects.PresignGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve download url: %w", err)
	}
	return url, nil
}
