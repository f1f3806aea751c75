package port

import (
	"context"

	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// IdentityResolver resolves the acting identity for a request. Every
// workflow operation requires this first.
type IdentityResolver interface {
	// Resolve returns the actor for an opaque credential, or an error
	// when no actor can be resolved.
	Resolve(ctx context.Context, credential string) (*entity.Actor, error)
}

// IdentityDirectory looks up known users by id, used to resolve the
// recipient of a notification (the transition counterparty).
type IdentityDirectory interface {
	Lookup(ctx context.Context, userID string) (*entity.Actor, error)
}

// Notification is one outbound human-readable event.
type Notification struct {
	EventType      string
	RecipientEmail string
	RecipientName  string
	Subject        string
	Body           string
	Payload        map[string]string
}

// NotificationSender delivers notifications. Delivery is fire-and-forget
// from the engine's perspective: the engine logs and swallows failures.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) (id string, err error)
}

// SignatureRequest is the payload handed to an e-signature provider.
type SignatureRequest struct {
	ContractID string
	Signers    []string
	Message    string
	Provider   string
}

// SignatureProvider is the external e-signature integration. It is
// invoked only after a contract reaches approved; the ESignRequest row
// is the system of record and a provider failure does not undo it.
type SignatureProvider interface {
	RequestSignatures(ctx context.Context, req SignatureRequest) (handle string, err error)
}
