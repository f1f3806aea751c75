package service

import (
	"testing"

	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

func TestAuthorizer_CanSubmitQuote(t *testing.T) {
	a := NewAuthorizer()
	quote := &entity.Quote{ID: "q-1", CreatedBy: "user-owner"}

	if d := a.CanSubmitQuote(owner, quote); !d.Allowed {
		t.Errorf("CanSubmitQuote() owner denied: %s", d.Reason)
	}
	if d := a.CanSubmitQuote(stranger, quote); d.Allowed {
		t.Errorf("CanSubmitQuote() non-owner allowed")
	}
}

func TestAuthorizer_CanDecideQuote(t *testing.T) {
	a := NewAuthorizer()

	tests := []struct {
		role entity.Role
		want bool
	}{
		{entity.RoleAdmin, true},
		{entity.RoleManager, true},
		{"Manager", true}, // role matching is case-insensitive
		{entity.RoleOwner, false},
		{entity.RoleMember, false},
	}

	for _, tt := range tests {
		actor := &entity.Actor{ID: "u", Role: tt.role}
		if got := a.CanDecideQuote(actor).Allowed; got != tt.want {
			t.Errorf("CanDecideQuote(role=%s) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestAuthorizer_CanDecideCheckpoint(t *testing.T) {
	a := NewAuthorizer()

	tests := []struct {
		name         string
		actorRole    entity.Role
		requiredRole entity.Role
		want         bool
	}{
		{"exact role match", entity.RoleManager, entity.RoleManager, true},
		{"case-insensitive match", "MANAGER", "Manager", true},
		{"admin overrides", entity.RoleAdmin, entity.RoleManager, true},
		{"owner overrides", entity.RoleOwner, entity.RoleManager, true},
		{"member without role", entity.RoleMember, entity.RoleManager, false},
		{"manager cannot override elsewhere", entity.RoleManager, entity.RoleOwner, false},
		{"unset role allows privileged", entity.RoleManager, "", true},
		{"unset role refuses member", entity.RoleMember, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := &entity.Actor{ID: "u", Role: tt.actorRole}
			cp := &entity.ApprovalCheckpoint{ID: "cp-1", Name: "Legal", RequiredRole: tt.requiredRole}
			if got := a.CanDecideCheckpoint(actor, cp).Allowed; got != tt.want {
				t.Errorf("CanDecideCheckpoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizer_CanRequestSignature(t *testing.T) {
	a := NewAuthorizer()

	if d := a.CanRequestSignature(&entity.Actor{Role: entity.RoleMember}); d.Allowed {
		t.Errorf("CanRequestSignature() member allowed")
	}
	for _, role := range []entity.Role{entity.RoleAdmin, entity.RoleOwner, entity.RoleManager} {
		if d := a.CanRequestSignature(&entity.Actor{Role: role}); !d.Allowed {
			t.Errorf("CanRequestSignature(role=%s) denied: %s", role, d.Reason)
		}
	}
}
