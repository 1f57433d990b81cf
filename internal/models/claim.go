package models

import "time"

// ClaimStatus captures workflow states for ownership claims.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "PENDING"
	ClaimStatusApproved  ClaimStatus = "APPROVED"
	ClaimStatusRejected  ClaimStatus = "REJECTED"
	ClaimStatusCancelled ClaimStatus = "CANCELLED"
)

// Terminal reports whether the claim can no longer change.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected || s == ClaimStatusCancelled
}

// Claim links one student to exactly one found item, optionally via a
// lost report. Creating a claim reserves the item (UNCLAIMED->MATCHED)
// in the same transaction as the insert.
type Claim struct {
	ID           string      `db:"id" json:"id"`
	FoundItemID  string      `db:"found_item_id" json:"found_item_id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	LostReportID *string     `db:"lost_report_id" json:"lost_report_id,omitempty"`
	Description  string      `db:"description" json:"description"`
	Status       ClaimStatus `db:"status" json:"status"`
	DecidedBy    *string     `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt    *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ClaimFilter constrains listing queries.
type ClaimFilter struct {
	Status      []ClaimStatus
	StudentID   string
	FoundItemID string
	Page        int
	PageSize    int
}