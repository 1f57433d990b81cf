package dto

import (
	"time"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

// CreateReceiptRequest finalizes an approved claim into a handover record.
type CreateReceiptRequest struct {
	ClaimID     string                   `json:"claimId" validate:"required,uuid4"`
	Recipient   models.ConfirmedIdentity `json:"recipient"`
	WitnessedBy *string                  `json:"witnessedBy,omitempty" validate:"omitempty,uuid4"`
}

// ReceiptQuery mirrors supported listing filters.
type ReceiptQuery struct {
	HandledBy   string
	FoundItemID string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

// ReceiptDownload carries a signed URL for the rendered PDF document.
type ReceiptDownload struct {
	ReceiptID string    `json:"receiptId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
