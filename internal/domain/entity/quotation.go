package entity

import "time"

// Quotation is the customer-facing priced document with its own
// distribution lifecycle, distinct from the internal Quote.
type Quotation struct {
	ID             string    `json:"id"`
	QuoteNumber    string    `json:"quote_number"`
	LeadName       string    `json:"lead_name"`
	LeadCompany    string    `json:"lead_company,omitempty"`
	Status         string    `json:"status"`
	Subtotal       float64   `json:"subtotal"`
	DiscountAmount float64   `json:"discount_amount"`
	TaxAmount      float64   `json:"tax_amount"`
	Total          float64   `json:"total"`
	Currency       string    `json:"currency"`
	ValidUntil     time.Time `json:"valid_until"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsExpired reports whether the quotation is past its own validity date,
// independent of any share-link expiry.
func (q *Quotation) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// QuotationLine is a single priced line item on a quotation.
type QuotationLine struct {
	ID          string  `json:"id"`
	QuotationID string  `json:"quotation_id"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	Position    int     `json:"position"`
}

// StatusHistoryEntry records a single distribution status change. Every
// quotation status change appends exactly one entry.
type StatusHistoryEntry struct {
	ID          string    `json:"id"`
	QuotationID string    `json:"quotation_id"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	ChangedBy   string    `json:"changed_by,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}
