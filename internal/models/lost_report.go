package models

import "time"

// LostReportStatus mirrors recovery progress for a student's report.
type LostReportStatus string

const (
	LostReportStatusPending  LostReportStatus = "PENDING"
	LostReportStatusVerified LostReportStatus = "VERIFIED"
	LostReportStatusRejected LostReportStatus = "REJECTED"
	LostReportStatusMatched  LostReportStatus = "MATCHED"
	LostReportStatusReturned LostReportStatus = "RETURNED"
)

// LostReport is a student's declaration that an item is missing. A
// claim or match may exist without one; staff can match directly
// against an unreported found item.
type LostReport struct {
	ID          string           `db:"id" json:"id"`
	ReporterID  string           `db:"reporter_id" json:"reporter_id"`
	Name        string           `db:"name" json:"name"`
	Category    string           `db:"category" json:"category"`
	Description string           `db:"description" json:"description"`
	Campus      string           `db:"campus" json:"campus"`
	LostAt      *time.Time       `db:"lost_at" json:"lost_at,omitempty"`
	Status      LostReportStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// LostReportFilter constrains listing queries.
type LostReportFilter struct {
	Status     []LostReportStatus
	ReporterID string
	Category   string
	Campus     string
	Page       int
	PageSize   int
}
