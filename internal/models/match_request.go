package models

import "time"

// MatchStatus captures workflow states for staff-proposed pairings.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "PENDING"
	MatchStatusConfirmed MatchStatus = "CONFIRMED"
	MatchStatusRejected  MatchStatus = "REJECTED"
	MatchStatusExpired   MatchStatus = "EXPIRED"
	MatchStatusCompleted MatchStatus = "COMPLETED"
)

// Terminal reports whether the request can no longer change.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusRejected || s == MatchStatusExpired || s == MatchStatusCompleted
}

// MatchRequest is a staff-originated proposal pairing a found item
// with a student, awaiting the student's confirmation. Unlike claims,
// a proposal does not reserve the item; only confirmation does.
type MatchRequest struct {
	ID           string      `db:"id" json:"id"`
	FoundItemID  string      `db:"found_item_id" json:"found_item_id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	LostReportID *string     `db:"lost_report_id" json:"lost_report_id,omitempty"`
	Reason       string      `db:"reason" json:"reason"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`
	Status       MatchStatus `db:"status" json:"status"`
	ProposedBy   string      `db:"proposed_by" json:"proposed_by"`
	ResolvedBy   *string     `db:"resolved_by" json:"resolved_by,omitempty"`
	ExpiresAt    time.Time   `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus derives EXPIRED for pending requests past their
// deadline without requiring a write at the exact expiry instant.
func (m *MatchRequest) EffectiveStatus(now time.Time) MatchStatus {
	if m.Status == MatchStatusPending && now.After(m.ExpiresAt) {
		return MatchStatusExpired
	}
	return m.Status
}

// MatchFilter constrains listing queries.
type MatchFilter struct {
	Status      []MatchStatus
	StudentID   string
	FoundItemID string
	ProposedBy  string
	Page        int
	PageSize    int
}
