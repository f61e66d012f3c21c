package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
)

type fakeResolver struct {
	secret   []byte
	sessions map[uuid.UUID]*domain.Session
	revoked  map[string]bool
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		secret:   []byte("test-secret"),
		sessions: map[uuid.UUID]*domain.Session{},
		revoked:  map[string]bool{},
	}
}

func (f *fakeResolver) ResolvePrincipal(ctx context.Context, uid uuid.UUID) (*domain.Session, error) {
	session, ok := f.sessions[uid]
	if !ok {
		return nil, context.Canceled
	}
	return session, nil
}

func (f *fakeResolver) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func (f *fakeResolver) JWTSecret() []byte { return f.secret }

func signToken(t *testing.T, secret []byte, subject, jti string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestAuthenticator_ResolvesPrincipalIntoContext(t *testing.T) {
	resolver := newFakeResolver()
	uid := uuid.New()
	resolver.sessions[uid] = &domain.Session{UID: uid, Email: "ada@example.com", Role: domain.RoleAmbassador}

	var gotSession *domain.Session
	var gotClaims *TokenClaims
	handler := Authenticator(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionFromContext(r.Context())
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	expiresAt := time.Now().Add(time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, resolver.secret, uid.String(), "jti-1", expiresAt))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if gotSession == nil || gotSession.UID != uid {
		t.Fatalf("session not injected: %+v", gotSession)
	}
	if gotClaims == nil || gotClaims.JTI != "jti-1" {
		t.Fatalf("claims not injected: %+v", gotClaims)
	}
	if gotClaims.ExpiresAt.Unix() != expiresAt.Unix() {
		t.Fatalf("expiry mismatch: got %v want %v", gotClaims.ExpiresAt, expiresAt)
	}
}

func TestAuthenticator_Rejections(t *testing.T) {
	resolver := newFakeResolver()
	uid := uuid.New()
	resolver.sessions[uid] = &domain.Session{UID: uid, Role: domain.RoleAmbassador}
	resolver.revoked["jti-out"] = true

	future := time.Now().Add(time.Hour)
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, []byte("other-secret"), uid.String(), "jti-2", future)},
		{"expired token", "Bearer " + signToken(t, resolver.secret, uid.String(), "jti-3", time.Now().Add(-time.Minute))},
		{"non-uuid subject", "Bearer " + signToken(t, resolver.secret, "admin", "jti-4", future)},
		{"revoked jti", "Bearer " + signToken(t, resolver.secret, uid.String(), "jti-out", future)},
		{"unknown subject", "Bearer " + signToken(t, resolver.secret, uuid.NewString(), "jti-5", future)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := Authenticator(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if called {
				t.Fatal("next handler ran on a rejected request")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		session  *domain.Session
		required domain.Role
		wantCode int
	}{
		{"no session", nil, domain.RoleAdmin, http.StatusUnauthorized},
		{"wrong role", &domain.Session{UID: uuid.New(), Role: domain.RoleAmbassador}, domain.RoleAdmin, http.StatusUnauthorized},
		{"matching role", &domain.Session{UID: uuid.New(), Role: domain.RoleAdmin}, domain.RoleAdmin, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireRole(tc.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
			if tc.session != nil {
				req = req.WithContext(context.WithValue(req.Context(), sessionContextKey, tc.session))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
		})
	}
}
