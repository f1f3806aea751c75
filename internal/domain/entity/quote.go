package entity

import "time"

// Quote is the internal offer artifact subject to owner/approver sign-off.
// It never leaves the organization; the customer-facing document is the
// Quotation. A quote is never hard-deleted: terminal statuses persist the
// record for audit.
type Quote struct {
	ID              string     `json:"id"`
	QuoteNumber     string     `json:"quote_number"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	CreatedBy       string     `json:"created_by"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovalNotes   string     `json:"approval_notes,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Total           float64    `json:"total"`
	Currency        string     `json:"currency"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
