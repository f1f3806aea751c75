package entity

// Status constants for Quote (internal approval lifecycle)
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusPending  = "pending"
	QuoteStatusApproved = "approved"
	QuoteStatusRejected = "rejected"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
)

// Status constants for Contract
const (
	ContractStatusDraft            = "draft"
	ContractStatusPendingApproval  = "pending_approval"
	ContractStatusApproved         = "approved"
	ContractStatusPendingSignature = "pending_signature"
	ContractStatusSigned           = "signed"
	ContractStatusActive           = "active"
	ContractStatusCompleted        = "completed"
	ContractStatusCancelled        = "cancelled"
)

// Status constants for Quotation (customer-facing distribution lifecycle)
const (
	QuotationStatusDraft    = "draft"
	QuotationStatusSent     = "sent"
	QuotationStatusViewed   = "viewed"
	QuotationStatusAccepted = "accepted"
	QuotationStatusRejected = "rejected"
	QuotationStatusExpired  = "expired"
	QuotationStatusRevised  = "revised"
)

// Customer response type constants
const (
	ResponseAccept         = "accept"
	ResponseReject         = "reject"
	ResponseRequestChanges = "request_changes"
)

// E-sign request status constants
const (
	ESignStatusPending   = "pending"
	ESignStatusSent      = "sent"
	ESignStatusCompleted = "completed"
	ESignStatusDeclined  = "declined"
)

// Notification event type constants
const (
	EventQuoteSubmitted     = "quote_submitted"
	EventQuoteApproved      = "quote_approved"
	EventQuoteRejected      = "quote_rejected"
	EventQuoteAccepted      = "quote_accepted"
	EventQuoteDeclined      = "quote_declined"
	EventCheckpointDecided  = "checkpoint_decided"
	EventSignatureRequested = "signature_requested"
)

// DecisiveResponse reports whether a customer response type settles the
// quotation. Accept and reject settle it; request_changes never does.
func DecisiveResponse(responseType string) bool {
	return responseType == ResponseAccept || responseType == ResponseReject
}
