package models

import "time"

// VerificationStatus captures the lifecycle of a physical-presence check.
type VerificationStatus string

const (
	VerificationStatusPending VerificationStatus = "PENDING"
	VerificationStatusDecided VerificationStatus = "DECIDED"
)

// VerificationDecisionKind is the outcome recorded by security.
type VerificationDecisionKind string

const (
	VerificationApprove VerificationDecisionKind = "APPROVE"
	VerificationReject  VerificationDecisionKind = "REJECT"
)

// VerificationRequest ties to exactly one claim. Staff escalate a
// pending claim to an in-person check performed by security.
type VerificationRequest struct {
	ID          string             `db:"id" json:"id"`
	ClaimID     string             `db:"claim_id" json:"claim_id"`
	RequestedBy string             `db:"requested_by" json:"requested_by"`
	Status      VerificationStatus `db:"status" json:"status"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// VerificationDecision records the security officer's outcome for a
// verification request. Exactly one decision per request.
type VerificationDecision struct {
	ID                    string                   `db:"id" json:"id"`
	VerificationRequestID string                   `db:"verification_request_id" json:"verification_request_id"`
	DecidedBy             string                   `db:"decided_by" json:"decided_by"`
	Decision              VerificationDecisionKind `db:"decision" json:"decision"`
	Comment               string                   `db:"comment" json:"comment"`
	CreatedAt             time.Time                `db:"created_at" json:"created_at"`
}
