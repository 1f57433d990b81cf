package models

import "time"

// FoundItemStatus tracks the recovery lifecycle of a registered item.
//
// Legal transitions: UNCLAIMED -> MATCHED -> RETURNED, with
// MATCHED -> UNCLAIMED as the only backward edge (cancellation or
// rejection) and UNCLAIMED -> DISPOSED as a terminal administrative
// edge. RETURNED and DISPOSED are never left.
type FoundItemStatus string

const (
	FoundItemStatusUnclaimed FoundItemStatus = "UNCLAIMED"
	FoundItemStatusMatched   FoundItemStatus = "MATCHED"
	FoundItemStatusReturned  FoundItemStatus = "RETURNED"
	FoundItemStatusDisposed  FoundItemStatus = "DISPOSED"
)

// Valid reports whether the status is a known value.
func (s FoundItemStatus) Valid() bool {
	switch s {
	case FoundItemStatusUnclaimed, FoundItemStatusMatched, FoundItemStatusReturned, FoundItemStatusDisposed:
		return true
	}
	return false
}

// Terminal reports whether the item can no longer move.
func (s FoundItemStatus) Terminal() bool {
	return s == FoundItemStatusReturned || s == FoundItemStatusDisposed
}

// FoundItem is a physical object registered by security, pending
// identification of its owner.
type FoundItem struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	Description  string          `db:"description" json:"description"`
	Campus       string          `db:"campus" json:"campus"`
	Location     string          `db:"location" json:"location"`
	PhotoURL     *string         `db:"photo_url" json:"photo_url,omitempty"`
	Status       FoundItemStatus `db:"status" json:"status"`
	RegisteredBy string          `db:"registered_by" json:"registered_by"`
	FoundAt      time.Time       `db:"found_at" json:"found_at"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// FoundItemFilter constrains listing queries.
type FoundItemFilter struct {
	Status   []FoundItemStatus
	Category string
	Campus   string
	Search   string
	Page     int
	PageSize int
}
