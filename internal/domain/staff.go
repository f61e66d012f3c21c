/**
 * @description
 * Core identity model for the ambassador program. A staff row is both the
 * login principal and the profile the console renders; the role and KYC
 * status are closed enums so every consumer matches them exhaustively
 * instead of comparing raw strings.
 *
 * @dependencies
 * - github.com/google/uuid: Staff primary keys.
 */
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role determines which side of the console a principal may use.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAmbassador Role = "ambassador"
)

// ParseRole maps a stored role string onto the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleAmbassador:
		return RoleAmbassador, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// KYCStatus is the profile-level verification state. It gates deposit
// submission: only ApprovedKYC and VerifiedKYC unlock deposits.
type KYCStatus string

const (
	PendingKYC  KYCStatus = "pending"
	VerifiedKYC KYCStatus = "verified"
	ApprovedKYC KYCStatus = "approved"
	RejectedKYC KYCStatus = "rejected"
)

// ParseKYCStatus maps a stored kyc_status string onto the closed enum.
func ParseKYCStatus(s string) (KYCStatus, error) {
	switch KYCStatus(s) {
	case PendingKYC, VerifiedKYC, ApprovedKYC, RejectedKYC:
		return KYCStatus(s), nil
	default:
		return "", fmt.Errorf("unknown kyc status %q", s)
	}
}

// DepositAllowed reports whether the profile status unlocks deposit
// submission.
func (s KYCStatus) DepositAllowed() bool {
	switch s {
	case ApprovedKYC, VerifiedKYC:
		return true
	case PendingKYC, RejectedKYC:
		return false
	default:
		return false
	}
}

// EmailStatus tracks activation of the registration email.
type EmailStatus string

const (
	EmailPending  EmailStatus = "pending"
	EmailVerified EmailStatus = "verified"
)

// PaymentMethod is one payout destination on an ambassador profile.
// Stored as a jsonb array on the staffs row.
type PaymentMethod struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	SwiftCode     string `json:"swift_code,omitempty"`
}

// Staff is a console principal: an admin reviewer or an ambassador.
type Staff struct {
	ID             uuid.UUID       `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Role           Role            `json:"role"`
	KYCStatus      KYCStatus       `json:"kyc_status"`
	EmailStatus    EmailStatus     `json:"email_status"`
	Address        *string         `json:"address,omitempty"`
	Country        *string         `json:"country,omitempty"`
	PhotoKey       *string         `json:"photo_key,omitempty"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	PasswordHash   string          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Session is the per-request principal resolved by the auth middleware.
// It is also the shape cached in redis under session:<uid>.
type Session struct {
	UID       uuid.UUID `json:"uid"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	KYCStatus KYCStatus `json:"kyc_status"`
}
