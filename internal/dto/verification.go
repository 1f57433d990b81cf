package dto

import "github.com/noah-isme/campus-lostfound-api/internal/models"

// RequestVerificationRequest escalates a pending claim to an in-person check.
type RequestVerificationRequest struct {
	ClaimID string `json:"claimId" validate:"required,uuid4"`
}

// DecideVerificationRequest records the security officer's outcome.
type DecideVerificationRequest struct {
	Decision models.VerificationDecisionKind `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Comment  string                          `json:"comment" validate:"max=1000"`
}

// VerificationDetail joins a request with its decision, when present.
type VerificationDetail struct {
	Request  models.VerificationRequest   `json:"request"`
	Decision *models.VerificationDecision `json:"decision,omitempty"`
}
