package service

import (
	"fmt"

	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// Decision is the outcome of a single authorization check. Reason is
// human-readable and safe to return to the caller on deny.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorizer centralizes the role and ownership policy for every
// (entity, action) pair so the policy is testable independently of
// transport. It holds no state; all inputs arrive per call.
type Authorizer struct{}

// NewAuthorizer creates a new Authorizer
func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// CanSubmitQuote allows only the quote's owner to submit it for approval.
func (a *Authorizer) CanSubmitQuote(actor *entity.Actor, quote *entity.Quote) Decision {
	if actor.ID != quote.CreatedBy {
		return deny("you can only submit your own quotes")
	}
	return allow()
}

// CanDecideQuote allows approve/reject only for approver-class roles.
func (a *Authorizer) CanDecideQuote(actor *entity.Actor) Decision {
	if !actor.Role.IsApprover() {
		return deny("only managers and admins can approve or reject quotes")
	}
	return allow()
}

// CanRespondQuote allows accept/decline only for the quote's owner.
func (a *Authorizer) CanRespondQuote(actor *entity.Actor, quote *entity.Quote) Decision {
	if actor.ID != quote.CreatedBy {
		return deny("you can only accept or decline your own quotes")
	}
	return allow()
}

// CanDecideCheckpoint allows a checkpoint decision when the actor holds
// the checkpoint's required role, or holds an override role (admin or
// owner) when the required role is unset or not held.
func (a *Authorizer) CanDecideCheckpoint(actor *entity.Actor, cp *entity.ApprovalCheckpoint) Decision {
	if cp.RequiredRole == "" {
		if entity.NormalizeRole(actor.Role) == entity.RoleMember {
			return deny("this checkpoint requires a privileged role")
		}
		return allow()
	}
	if entity.NormalizeRole(actor.Role) == entity.NormalizeRole(cp.RequiredRole) {
		return allow()
	}
	if actor.Role.IsOverride() {
		return allow()
	}
	return deny(fmt.Sprintf("checkpoint %q requires role %s", cp.Name, cp.RequiredRole))
}

// CanRequestSignature allows the e-sign handoff for privileged roles.
func (a *Authorizer) CanRequestSignature(actor *entity.Actor) Decision {
	if entity.NormalizeRole(actor.Role) == entity.RoleMember {
		return deny("only privileged roles can request signatures")
	}
	return allow()
}
