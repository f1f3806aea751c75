package entity

import "time"

// AuditEntry is one append-only record of a state-changing action.
// Entries are never mutated or deleted.
type AuditEntry struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	OldValues  string    `json:"old_values,omitempty"`
	NewValues  string    `json:"new_values"`
	CreatedAt  time.Time `json:"created_at"`
}

// Audited entity type constants
const (
	AuditEntityQuote      = "quote"
	AuditEntityContract   = "contract"
	AuditEntityCheckpoint = "checkpoint"
	AuditEntityQuotation  = "quotation"
	AuditEntityESign      = "esign_request"
	AuditEntityShareLink  = "share_link"
	AuditEntityResponse   = "customer_response"
	AuditEntityVersion    = "quote_version"
)
