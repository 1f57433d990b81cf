package dto

import "github.com/noah-isme/campus-lostfound-api/internal/models"

// CreateClaimRequest payload for a student staking a claim on a found item.
type CreateClaimRequest struct {
	FoundItemID  string  `json:"foundItemId" validate:"required,uuid4"`
	LostReportID *string `json:"lostReportId,omitempty" validate:"omitempty,uuid4"`
	Description  string  `json:"description" validate:"required,max=1000"`
}

// ClaimQuery mirrors supported listing filters.
type ClaimQuery struct {
	Status      []models.ClaimStatus
	FoundItemID string
	StudentID   string
	Page        int
	PageSize    int
}

// AvailabilityResponse is the read-only claimability predicate.
type AvailabilityResponse struct {
	FoundItemID string `json:"foundItemId"`
	Available   bool   `json:"available"`
}
