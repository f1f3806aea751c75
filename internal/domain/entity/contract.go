package entity

import "time"

// Contract is a document requiring ordered sign-offs before it may
// proceed to signature.
type Contract struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	TotalValue float64   `json:"total_value"`
	Currency   string    `json:"currency"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ApprovalCheckpoint is a named, role-gated approval gate on a contract.
// Approved is nil while the checkpoint is pending. CheckpointOrder is
// informational ordering for display; it does not gate decisions.
type ApprovalCheckpoint struct {
	ID              string     `json:"id"`
	ContractID      string     `json:"contract_id"`
	Name            string     `json:"name"`
	CheckpointOrder int        `json:"checkpoint_order"`
	RequiredRole    Role       `json:"required_role,omitempty"`
	Approved        *bool      `json:"approved"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	RejectedReason  string     `json:"rejected_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ESignRequest records a handoff to an external signature provider. The
// row is the system of record; reaching the provider is best-effort.
type ESignRequest struct {
	ID          string    `json:"id"`
	ContractID  string    `json:"contract_id"`
	Signers     []string  `json:"signers"`
	Provider    string    `json:"provider"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	RequestedBy string    `json:"requested_by"`
	CreatedAt   time.Time `json:"created_at"`
}
