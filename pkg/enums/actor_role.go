package enums

import "fmt"

// ActorRole is the guild role carried in access tokens. Officers and leaders
// can mutate the ledger and distribute loot; members are read-only.
type ActorRole string

const (
	ActorRoleLeader  ActorRole = "leader"
	ActorRoleOfficer ActorRole = "officer"
	ActorRoleMember  ActorRole = "member"
)

var validActorRoles = []ActorRole{
	ActorRoleLeader,
	ActorRoleOfficer,
	ActorRoleMember,
}

// IsValid reports whether the value matches the canonical role set.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanMutate reports whether the role may change balances or assign loot.
func (r ActorRole) CanMutate() bool {
	return r == ActorRoleLeader || r == ActorRoleOfficer
}

// ParseActorRole converts raw input into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
