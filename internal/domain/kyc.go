/**
 * @description
 * KYC application model. Applications are keyed by the applicant's staff id
 * so a resubmission overwrites the previous one instead of accumulating
 * duplicates. Review metadata is written once by an admin decision.
 */
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the lifecycle of a submitted KYC application.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ParseReviewStatus maps a stored application status onto the closed enum.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch ReviewStatus(s) {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return ReviewStatus(s), nil
	default:
		return "", fmt.Errorf("unknown review status %q", s)
	}
}

// KYCApplication is one identity-verification submission. ID equals the
// applicant's staff id.
type KYCApplication struct {
	ID              uuid.UUID    `json:"id"`
	FullName        string       `json:"full_name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	Address         string       `json:"address"`
	Country         string       `json:"country"`
	City            string       `json:"city,omitempty"`
	PostalCode      string       `json:"postal_code,omitempty"`
	DocumentType    string       `json:"document_type"`
	IDFrontKey      string       `json:"id_front_key"`
	IDBackKey       string       `json:"id_back_key"`
	PhotoKey        string       `json:"photo_key"`
	Status          ReviewStatus `json:"status"`
	SubmittedAt     time.Time    `json:"submitted_at"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy      *uuid.UUID   `json:"reviewed_by,omitempty"`
	RejectionReason *string      `json:"rejection_reason,omitempty"`
}
