package dto

import (
	"time"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

// CreateLostReportRequest payload for a student declaring a missing item.
type CreateLostReportRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Category    string     `json:"category" validate:"required,max=100"`
	Description string     `json:"description" validate:"max=1000"`
	LostAt      *time.Time `json:"lostAt,omitempty"`
}

// ReviewLostReportRequest captures the staff intake decision.
type ReviewLostReportRequest struct {
	Status models.LostReportStatus `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	Note   string                  `json:"note" validate:"max=500"`
}

// LostReportQuery mirrors supported listing filters.
type LostReportQuery struct {
	Status   []models.LostReportStatus
	Category string
	Page     int
	PageSize int
}
