/**
 * @description
 * Admin-side endpoints: program dashboard, ambassador profile CRUD,
 * receipt review, KYC review and the collection reads. Review responses
 * carry the confirmed server state so the console re-reads instead of
 * patching optimistically.
 */
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/app"
)

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// AdminDashboard handles GET /admin/dashboard.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.AdminDashboard(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// ListAmbassadors handles GET /admin/ambassadors.
func (h *Handler) ListAmbassadors(w http.ResponseWriter, r *http.Request) {
	staffs, err := h.service.ListAmbassadors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, staffs)
}

// CreateAmbassador handles POST /admin/ambassadors.
func (h *Handler) CreateAmbassador(w http.ResponseWriter, r *http.Request) {
	var payload app.AmbassadorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	staff, err := h.service.CreateAmbassador(r.Context(), payload)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, staff)
}

// UpdateAmbassador handles PUT /admin/ambassadors/{id}.
func (h *Handler) UpdateAmbassador(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	var payload app.AmbassadorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	staff, err := h.service.UpdateAmbassador(r.Context(), id, payload)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

// DeleteAmbassador handles DELETE /admin/ambassadors/{id}.
func (h *Handler) DeleteAmbassador(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	if err := h.service.DeleteAmbassador(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ambassador deleted"})
}

// ListReceipts handles GET /admin/receipts.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.service.ListReceipts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// GetReceipt handles GET /admin/receipts/{id}. The stored image key is
// resolved to a presigned download URL for the review view.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	receipt, err := h.service.GetReceipt(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	imageURL, err := h.service.FileURL(r.Context(), SessionFromContext(r.Context()), receipt.ImageKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"receipt":   receipt,
		"image_url": imageURL,
	})
}

// ApproveReceipt handles POST /admin/receipts/{id}/approve. The response
// carries both the settled receipt and the deposit transaction created
// with it.
func (h *Handler) ApproveReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	receipt, txn, err := h.service.ApproveReceipt(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"receipt":     receipt,
		"transaction": txn,
	})
}

// RejectReceipt handles POST /admin/receipts/{id}/reject.
func (h *Handler) RejectReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	receipt, err := h.service.RejectReceipt(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// ListTransactions handles GET /admin/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListTransactions(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// ListKYCApplications handles GET /admin/kyc.
func (h *Handler) ListKYCApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListKYCApplications(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// GetKYCApplication handles GET /admin/kyc/{id}.
func (h *Handler) GetKYCApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	application, err := h.service.GetKYCApplication(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

// ApproveKYC handles POST /admin/kyc/{id}/approve.
func (h *Handler) ApproveKYC(w http.ResponseWriter, r *http.Request) {
	h.reviewKYC(w, r, true)
}

// RejectKYC handles POST /admin/kyc/{id}/reject with an optional reason.
func (h *Handler) RejectKYC(w http.ResponseWriter, r *http.Request) {
	h.reviewKYC(w, r, false)
}

func (h *Handler) reviewKYC(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	session := SessionFromContext(r.Context())

	var reason *string
	if !approve && r.Body != nil {
		var body struct {
			Reason string `json:"reason"`
		}
		// An empty or absent body is a rejection without a reason.
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Reason != "" {
			reason = &body.Reason
		}
	}

	application, err := h.service.ReviewKYC(r.Context(), id, approve, session.UID, reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}
