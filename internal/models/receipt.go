package models

import "time"

// ConfirmedIdentity is the recipient identity checked at handover.
type ConfirmedIdentity struct {
	FullName       string `json:"full_name"`
	DocumentNumber string `json:"document_number"`
	Phone          string `json:"phone"`
}

// ReturnReceipt is the terminal record of physical handover, closing
// the recovery case. Created exactly once per successfully resolved
// claim or match request; exactly one of ClaimID and MatchRequestID is
// set, naming the path that closed the case.
type ReturnReceipt struct {
	ID                string    `db:"id" json:"id"`
	ClaimID           *string   `db:"claim_id" json:"claim_id,omitempty"`
	MatchRequestID    *string   `db:"match_request_id" json:"match_request_id,omitempty"`
	FoundItemID       string    `db:"found_item_id" json:"found_item_id"`
	HandledBy         string    `db:"handled_by" json:"handled_by"`
	WitnessedBy       *string   `db:"witnessed_by" json:"witnessed_by,omitempty"`
	RecipientName     string    `db:"recipient_name" json:"recipient_name"`
	RecipientDocument string    `db:"recipient_document" json:"recipient_document"`
	RecipientPhone    string    `db:"recipient_phone" json:"recipient_phone"`
	DocumentPath      *string   `db:"document_path" json:"document_path,omitempty"`
	ReturnedAt        time.Time `db:"returned_at" json:"returned_at"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Recipient assembles the identity fields for rendering and responses.
func (r *ReturnReceipt) Recipient() ConfirmedIdentity {
	return ConfirmedIdentity{
		FullName:       r.RecipientName,
		DocumentNumber: r.RecipientDocument,
		Phone:          r.RecipientPhone,
	}
}

// ReceiptFilter constrains listing queries.
type ReceiptFilter struct {
	StudentID   string
	HandledBy   string
	FoundItemID string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}
