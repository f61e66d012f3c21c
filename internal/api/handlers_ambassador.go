/**
 * @description
 * Ambassador-side endpoints: dashboard, KYC submission (multipart), own
 * KYC application with presigned document URLs, deposit receipt
 * submission and the own-collection reads.
 */
package api

import (
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/nexapay/ambassador-service/internal/app"
	"github.com/nexapay/ambassador-service/internal/domain"
)

// Upload bodies are bounded before any parsing; per-file limits are
// enforced by the app layer.
const maxUploadBody = 64 << 20

// Dashboard handles GET /me/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	dash, err := h.service.AmbassadorDashboard(r.Context(), session.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// SubmitKYC handles POST /kyc (multipart form).
func (h *Handler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	submission := app.KYCSubmission{
		Fields: app.KYCFields{
			FullName:     r.FormValue("fullName"),
			Email:        r.FormValue("email"),
			Phone:        r.FormValue("phone"),
			Address:      r.FormValue("address"),
			Country:      r.FormValue("country"),
			City:         r.FormValue("city"),
			PostalCode:   r.FormValue("postalCode"),
			DocumentType: r.FormValue("documentType"),
		},
	}

	var err error
	if submission.Photo, err = readStagedFile(r, "photo"); err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded photo")
		return
	}
	if submission.IDFront, err = readStagedFile(r, "idFront"); err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded ID front")
		return
	}
	if submission.IDBack, err = readStagedFile(r, "idBack"); err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded ID back")
		return
	}

	application, err := h.service.SubmitKYC(r.Context(), session.UID, submission)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, application)
}

// GetOwnKYC handles GET /kyc: the application plus presigned document
// URLs for the console to render.
func (h *Handler) GetOwnKYC(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	application, err := h.service.GetOwnKYCApplication(r.Context(), session.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	documents := map[string]string{}
	for name, key := range map[string]string{
		"photo":    application.PhotoKey,
		"id_front": application.IDFrontKey,
		"id_back":  application.IDBackKey,
	} {
		url, err := h.service.FileURL(r.Context(), session, key)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		documents[name] = url
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"application": application,
		"documents":   documents,
	})
}

// SubmitDeposit handles POST /receipts (multipart form: amount, currency,
// receipt image).
func (h *Handler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Amount must be a number")
		return
	}
	amountMinor := int64(math.Round(amount * 100))

	image, err := readStagedFile(r, "receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded receipt")
		return
	}
	if image == nil {
		writeFieldErrors(w, "", map[string]string{"receipt": "Receipt image is required"})
		return
	}

	receipt, err := h.service.SubmitDeposit(r.Context(), session.UID, amountMinor, r.FormValue("currency"), *image)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrKYCRequired):
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"error":      "Your KYC application must be approved before you can deposit.",
				"kyc_status": session.KYCStatus,
			})
		case errors.Is(err, app.ErrInvalidDepositAmount):
			writeError(w, http.StatusBadRequest, "Amount must be greater than zero")
		case errors.Is(err, app.ErrUnsupportedCurrency):
			writeError(w, http.StatusBadRequest, "Unsupported currency")
		default:
			handleServiceError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// ListOwnReceipts handles GET /receipts.
func (h *Handler) ListOwnReceipts(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	receipts, err := h.service.ListOwnReceipts(r.Context(), session.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// ListOwnTransactions handles GET /transactions.
func (h *Handler) ListOwnTransactions(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	transactions, err := h.service.ListOwnTransactions(r.Context(), session.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// FileURL handles GET /files/url?key=...: resolves a storage key to a
// presigned download URL within the caller's namespace.
func (h *Handler) FileURL(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	url, err := h.service.FileURL(r.Context(), session, r.URL.Query().Get("key"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// readStagedFile pulls one optional file out of the parsed multipart
// form. A missing field returns (nil, nil).
func readStagedFile(r *http.Request, field string) (*domain.StagedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &domain.StagedFile{
		Name:        header.Filename,
		ContentType: headerContentType(header),
		Size:        header.Size,
		Data:        data,
	}, nil
}

func headerContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
