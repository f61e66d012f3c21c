/**
 * @description
 * Identity operations: registration with email activation, login with a
 * per-email rate limit and an exact error taxonomy, logout via a jti
 * denylist, and per-request principal resolution for the middleware.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: HS256 access tokens.
 * - golang.org/x/crypto/bcrypt: password hashing.
 */
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexapay/ambassador-service/internal/domain"
	"github.com/nexapay/ambassador-service/internal/store"
)

const minPasswordLength = 6

// RegistrationRequest is the self-service ambassador sign-up form.
type RegistrationRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// AuthResult is a successful login: the bearer token plus the resolved
// principal for the console to render immediately.
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Session   domain.Session `json:"user"`
}

// Register validates the sign-up form, creates the pending ambassador and
// enqueues the verification email event. The new account cannot log in
// until the activation link is used.
func (s *Service) Register(ctx context.Context, req RegistrationRequest) (*domain.Staff, error) {
	if verr := validateRegistration(req); verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := newActivationToken()
	if err != nil {
		return nil, err
	}

	staff := &domain.Staff{
		ID:             uuid.New(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          strings.TrimSpace(req.Phone),
		Role:           domain.RoleAmbassador,
		KYCStatus:      domain.PendingKYC,
		EmailStatus:    domain.EmailPending,
		PaymentMethods: []domain.PaymentMethod{},
		PasswordHash:   string(hash),
	}

	expiresAt := time.Now().Add(s.activationTTL)
	if err := s.repo.RegisterStaff(ctx, staff, token, expiresAt); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			verr := NewValidationError()
			verr.Fields["email"] = "Email is already in use"
			return nil, verr
		}
		return nil, err
	}

	log.Printf("level=info component=auth msg=\"ambassador registered\" staff_id=%s", staff.ID)
	return staff, nil
}

func validateRegistration(req RegistrationRequest) *ValidationError {
	verr := NewValidationError()
	if strings.TrimSpace(req.FirstName) == "" {
		verr.Fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		verr.Fields["lastName"] = "Last name is required"
	}
	switch {
	case strings.TrimSpace(req.Email) == "":
		verr.Fields["email"] = "Email is required"
	case !emailPattern.MatchString(req.Email):
		verr.Fields["email"] = "Email is invalid"
	}
	if strings.TrimSpace(req.Phone) == "" {
		verr.Fields["phone"] = "Phone number is required"
	}
	switch {
	case req.Password == "":
		verr.Fields["password"] = "Password is required"
	case len(req.Password) < minPasswordLength:
		verr.Fields["password"] = "Password must be at least 6 characters"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func newActivationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate activation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Activate consumes an activation token and marks the email verified.
func (s *Service) Activate(ctx context.Context, token string) (*domain.Staff, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, store.ErrActivationInvalid
	}
	staff, err := s.repo.ActivateStaff(ctx, token)
	if err != nil {
		return nil, err
	}
	s.dropSession(ctx, staff.ID)
	log.Printf("level=info component=auth msg=\"email activated\" staff_id=%s", staff.ID)
	return staff, nil
}

// Login authenticates an email/password pair. Failures map onto the login
// error taxonomy: malformed email, rate limited, unknown user, wrong
// password, unverified email, invalid role.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrMalformedEmail
	}

	if s.limiter != nil && s.loginAttemptLimit > 0 {
		count, _, err := s.limiter.ConsumeRateLimit(ctx, "login", email, s.loginAttemptLimit, time.Minute)
		if err != nil {
			log.Printf("level=warn component=auth msg=\"rate limiter unavailable; allowing attempt\" err=%v", err)
		} else if count > s.loginAttemptLimit {
			return nil, ErrRateLimited
		}
	}

	staff, err := s.repo.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)) != nil {
		return nil, ErrWrongCredential
	}
	if staff.EmailStatus != domain.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if _, err := domain.ParseRole(string(staff.Role)); err != nil {
		return nil, ErrInvalidRole
	}

	expiresAt := time.Now().Add(s.accessTokenTTL)
	token, err := s.signAccessToken(staff.ID, expiresAt)
	if err != nil {
		return nil, err
	}

	session := domain.Session{
		UID:       staff.ID,
		Email:     staff.Email,
		Role:      staff.Role,
		KYCStatus: staff.KYCStatus,
	}
	if s.sessions != nil {
		if err := s.sessions.Set(ctx, &session); err != nil {
			log.Printf("level=warn component=auth msg=\"session cache write failed\" staff_id=%s err=%v", staff.ID, err)
		}
	}

	log.Printf("level=info component=auth msg=\"login succeeded\" staff_id=%s role=%s", staff.ID, staff.Role)
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Session: session}, nil
}

func (s *Service) signAccessToken(staffID uuid.UUID, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   staffID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Logout denylists the token's jti for its remaining validity and drops
// the cached session. Both failures are returned, not swallowed.
func (s *Service) Logout(ctx context.Context, staffID uuid.UUID, jti string, expiresAt time.Time) error {
	if s.sessions == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl > 0 {
		if err := s.sessions.Revoke(ctx, jti, ttl); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	if err := s.sessions.Delete(ctx, staffID); err != nil {
		return fmt.Errorf("drop session cache: %w", err)
	}
	return nil
}

// ResolvePrincipal builds the per-request session for a verified token
// subject: cache first, staffs row authoritative. A missing profile is an
// authentication failure, not an internal error.
func (s *Service) ResolvePrincipal(ctx context.Context, uid uuid.UUID) (*domain.Session, error) {
	if s.sessions != nil {
		cached, err := s.sessions.Get(ctx, uid)
		if err != nil {
			log.Printf("level=warn component=auth msg=\"session cache read failed\" staff_id=%s err=%v", uid, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	staff, err := s.repo.GetStaffByID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("level=warn component=auth msg=\"token subject has no profile\" staff_id=%s", uid)
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	session := &domain.Session{
		UID:       staff.ID,
		Email:     staff.Email,
		Role:      staff.Role,
		KYCStatus: staff.KYCStatus,
	}
	if s.sessions != nil {
		if err := s.sessions.Set(ctx, session); err != nil {
			log.Printf("level=warn component=auth msg=\"session cache write failed\" staff_id=%s err=%v", uid, err)
		}
	}
	return session, nil
}

// IsTokenRevoked reports whether the jti was denylisted by a logout.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.sessions == nil {
		return false, nil
	}
	return s.sessions.IsRevoked(ctx, jti)
}

// JWTSecret exposes the signing key for the middleware's token parser.
func (s *Service) JWTSecret() []byte { return s.jwtSecret }

func (s *Service) dropSession(ctx context.Context, uid uuid.UUID) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Delete(ctx, uid); err != nil {
		log.Printf("level=warn component=auth msg=\"session cache delete failed\" staff_id=%s err=%v", uid, err)
	}
}
