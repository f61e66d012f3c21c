/**
 * @description
 * Identity endpoints: registration, activation, login, logout and the
 * current-principal read. The login handler maps the app-layer error
 * taxonomy onto the exact messages the console renders.
 *
 * @dependencies
 * - internal/app: business logic and sentinel errors.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nexapay/ambassador-service/internal/app"
	"github.com/nexapay/ambassador-service/internal/store"
)

// Handler bundles the HTTP handlers with the app service.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// handleServiceError translates common app/store errors; endpoint-specific
// taxonomies (login, deposits) map their own errors before falling back
// to this.
func handleServiceError(w http.ResponseWriter, err error) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeFieldErrors(w, "", verr.Fields)
		return
	}
	var kerr *app.KYCValidationError
	if errors.As(err, &kerr) {
		writeFieldErrors(w, string(kerr.Step), kerr.Fields)
		return
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email is already in use")
	case errors.Is(err, store.ErrReceiptNotPending):
		writeError(w, http.StatusConflict, "Receipt has already been reviewed")
	case errors.Is(err, store.ErrApplicationNotPending):
		writeError(w, http.StatusConflict, "KYC application has already been reviewed")
	case errors.Is(err, store.ErrActivationInvalid):
		writeError(w, http.StatusBadRequest, "Activation link is invalid or expired.")
	case errors.Is(err, app.ErrForbiddenFile):
		writeError(w, http.StatusForbidden, "You do not have access to this file")
	case errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req app.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	staff, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      staff.ID,
		"email":   staff.Email,
		"message": "An activation link has been sent to your email.",
	})
}

// Activate handles GET /auth/activate?token=...
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Activate(r.Context(), r.URL.Query().Get("token")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified. You can now log in."})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMalformedEmail):
			writeError(w, http.StatusBadRequest, "Invalid email address.")
		case errors.Is(err, app.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "Too many failed login attempts. Please try again later.")
		case errors.Is(err, app.ErrUnknownUser):
			writeError(w, http.StatusUnauthorized, "No user found with that email.")
		case errors.Is(err, app.ErrWrongCredential):
			writeError(w, http.StatusUnauthorized, "Incorrect password. Please try again.")
		case errors.Is(err, app.ErrEmailNotVerified):
			writeError(w, http.StatusForbidden, "Please verify your email first.")
		case errors.Is(err, app.ErrInvalidRole):
			writeError(w, http.StatusForbidden, "Invalid user role.")
		default:
			writeError(w, http.StatusInternalServerError, "An error occurred during login. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout on the authenticated group.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	claims := ClaimsFromContext(r.Context())
	if session == nil || claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), session.UID, claims.JTI, claims.ExpiresAt); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /auth/me: the reload-current-principal read.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
