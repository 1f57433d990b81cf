package dto

import (
	"time"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

// RegisterFoundItemRequest payload for security registering a recovered item.
type RegisterFoundItemRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Category    string     `json:"category" validate:"required,max=100"`
	Description string     `json:"description" validate:"max=1000"`
	Location    string     `json:"location" validate:"required,max=200"`
	PhotoURL    *string    `json:"photoUrl,omitempty" validate:"omitempty,url"`
	FoundAt     *time.Time `json:"foundAt,omitempty"`
}

// FoundItemQuery mirrors supported listing filters.
type FoundItemQuery struct {
	Status   []models.FoundItemStatus
	Category string
	Campus   string
	Search   string
	Page     int
	PageSize int
}

// RecoveryCase is a read-side projection of everything attached to a
// found item: the canonical place to observe recovery progress without
// consulting the three status mirrors separately.
type RecoveryCase struct {
	Item        models.FoundItem      `json:"item"`
	ActiveClaim *models.Claim         `json:"activeClaim,omitempty"`
	ActiveMatch *models.MatchRequest  `json:"activeMatch,omitempty"`
	Receipt     *models.ReturnReceipt `json:"receipt,omitempty"`
	LostReport  *models.LostReport    `json:"lostReport,omitempty"`
}
