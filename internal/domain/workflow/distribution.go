package workflow

import (
	"sort"

	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// distributionTransitions is the fixed transition table for the
// customer-facing quotation lifecycle. The listed edges are the only
// legal transitions; this is business policy, not configuration.
var distributionTransitions = map[string][]string{
	entity.QuotationStatusDraft:    {entity.QuotationStatusSent},
	entity.QuotationStatusSent:     {entity.QuotationStatusViewed, entity.QuotationStatusRevised, entity.QuotationStatusExpired},
	entity.QuotationStatusViewed:   {entity.QuotationStatusAccepted, entity.QuotationStatusRejected, entity.QuotationStatusRevised},
	entity.QuotationStatusAccepted: {},
	entity.QuotationStatusRejected: {entity.QuotationStatusRevised},
	entity.QuotationStatusExpired:  {entity.QuotationStatusRevised},
	entity.QuotationStatusRevised:  {entity.QuotationStatusSent},
}

// ValidQuotationStatus reports whether the status exists in the
// distribution table at all.
func ValidQuotationStatus(status string) bool {
	_, ok := distributionTransitions[status]
	return ok
}

// DistributionAllowed returns the legal next statuses from the given
// status, sorted. Computed, never stored.
func DistributionAllowed(from string) []string {
	next, ok := distributionTransitions[from]
	if !ok {
		return []string{}
	}
	out := append([]string{}, next...)
	sort.Strings(out)
	return out
}

// CanDistribute reports whether from -> to is a legal distribution
// transition.
func CanDistribute(from, to string) bool {
	for _, next := range distributionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckDistribution validates from -> to and returns a *TransitionError
// listing the allowed set when the edge is not in the table.
func CheckDistribution(from, to string) error {
	if CanDistribute(from, to) {
		return nil
	}
	allowed := DistributionAllowed(from)
	states := make([]State, len(allowed))
	for i, s := range allowed {
		states[i] = State(s)
	}
	return &TransitionError{
		Entity:    "quotation",
		Current:   State(from),
		Requested: "set status " + to,
		Allowed:   states,
	}
}
