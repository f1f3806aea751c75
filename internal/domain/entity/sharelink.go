package entity

import "time"

// PublicShareLink exposes a quotation to a customer through an opaque,
// expiring token. At most one unexpired link per quotation is treated as
// canonical: asking again returns the existing one.
type PublicShareLink struct {
	ID           string     `json:"id"`
	QuotationID  string     `json:"quotation_id"`
	ShareToken   string     `json:"share_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ViewCount    int64      `json:"view_count"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsExpired reports whether the link itself is past its expiry.
func (l *PublicShareLink) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// CustomerResponse is a customer's answer to a shared quotation. The
// first decisive response (accept/reject) wins; request_changes may be
// recorded any number of times.
type CustomerResponse struct {
	ID            string    `json:"id"`
	QuotationID   string    `json:"quotation_id"`
	ResponseType  string    `json:"response_type"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Signature     string    `json:"signature,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	IPAddress     string    `json:"ip_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
