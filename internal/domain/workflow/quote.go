package workflow

import (
	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// Quote approval states
const (
	QuoteDraft    State = entity.QuoteStatusDraft
	QuotePending  State = entity.QuoteStatusPending
	QuoteApproved State = entity.QuoteStatusApproved
	QuoteRejected State = entity.QuoteStatusRejected
	QuoteAccepted State = entity.QuoteStatusAccepted
	QuoteDeclined State = entity.QuoteStatusDeclined
)

// Quote approval triggers
const (
	TriggerSubmit  Trigger = "submit"
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerAccept  Trigger = "accept"
	TriggerDecline Trigger = "decline"
)

var quoteTerminal = map[State]bool{
	QuoteRejected: true,
	QuoteAccepted: true,
	QuoteDeclined: true,
}

// QuoteTerminal reports whether a quote status permits no further
// transition. A rejected quote is not reopened; a new quote is created
// instead.
func QuoteTerminal(status string) bool {
	return quoteTerminal[State(status)]
}

func newQuoteBuilder() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(QuoteDraft).
		Permit(TriggerSubmit, QuotePending)
	b.Configure(QuotePending).
		Permit(TriggerApprove, QuoteApproved).
		Permit(TriggerReject, QuoteRejected)
	b.Configure(QuoteApproved).
		Permit(TriggerAccept, QuoteAccepted).
		Permit(TriggerDecline, QuoteDeclined)
	return b
}

// NewQuoteMachine returns a state machine positioned at the quote's
// current status, configured with the internal approval lifecycle:
// draft -> pending -> {approved, rejected}; approved -> {accepted, declined}.
func NewQuoteMachine(currentStatus string) (StateMachine, error) {
	state := State(currentStatus)
	switch state {
	case QuoteDraft, QuotePending, QuoteApproved, QuoteRejected, QuoteAccepted, QuoteDeclined:
	default:
		return nil, &TransitionError{Entity: "quote", Current: state, Requested: "load"}
	}
	return newQuoteBuilder().Build("quote", state), nil
}
