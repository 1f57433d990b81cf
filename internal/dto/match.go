package dto

import "github.com/noah-isme/campus-lostfound-api/internal/models"

// CreateMatchRequest payload for staff proposing a pairing. Exactly one
// of studentId or lostReportId must name the counterpart; when a lost
// report is given its reporter becomes the target student.
type CreateMatchRequest struct {
	FoundItemID  string  `json:"foundItemId" validate:"required,uuid4"`
	StudentID    *string `json:"studentId,omitempty" validate:"omitempty,uuid4"`
	LostReportID *string `json:"lostReportId,omitempty" validate:"omitempty,uuid4"`
	Reason       string  `json:"reason" validate:"required,max=500"`
	Notes        string  `json:"notes" validate:"max=1000"`
}

// ConfirmMatchRequest captures the target student's acceptance.
type ConfirmMatchRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// RejectMatchRequest captures the target student's refusal.
type RejectMatchRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ResolveMatchRequest finalizes a confirmed match into a handover.
type ResolveMatchRequest struct {
	Notes     string                   `json:"notes" validate:"max=1000"`
	Recipient models.ConfirmedIdentity `json:"recipient"`
}

// MatchQuery mirrors supported listing filters.
type MatchQuery struct {
	Status      []models.MatchStatus
	FoundItemID string
	StudentID   string
	Page        int
	PageSize    int
}
