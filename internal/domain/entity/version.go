package entity

import "time"

// QuoteVersion is an immutable point-in-time snapshot of a quotation and
// its line items. Version numbers are contiguous per quotation, starting
// at 1. Never mutated after insert.
type QuoteVersion struct {
	ID           string    `json:"id"`
	QuotationID  string    `json:"quotation_id"`
	Version      int       `json:"version"`
	SnapshotData string    `json:"snapshot_data"`
	Reason       string    `json:"reason,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// VersionSnapshot is the serialized payload stored in
// QuoteVersion.SnapshotData.
type VersionSnapshot struct {
	Quotation Quotation       `json:"quotation"`
	Lines     []QuotationLine `json:"lines"`
	TakenAt   time.Time       `json:"taken_at"`
}
