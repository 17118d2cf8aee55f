package auth

import (
	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Policy resolves which staff roles may see and act on each ticket
// category. The mapping is configuration, fixed for the process lifetime.
type Policy struct {
	rolesByCategory map[domain.Category][]string
}

// NewPolicy builds the policy from the configured category role lists,
// deduplicating and dropping malformed role identifiers.
func NewPolicy(rolesByCategory map[domain.Category][]string) *Policy {
	cleaned := make(map[domain.Category][]string, len(rolesByCategory))
	for cat, ids := range rolesByCategory {
		seen := make(map[string]struct{}, len(ids))
		var roles []string
		for _, id := range ids {
			if !domain.ValidSnowflake(id) {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			roles = append(roles, id)
		}
		cleaned[cat] = roles
	}
	return &Policy{rolesByCategory: cleaned}
}

// RolesFor returns the staff role set entitled to the category.
func (p *Policy) RolesFor(category domain.Category) []string {
	roles := p.rolesByCategory[category]
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// IsStaff reports whether the actor may manage tickets of the category:
// either administrative privilege or membership in the category's role set.
func (p *Policy) IsStaff(actor domain.Actor, category domain.Category) bool {
	if actor.Administrator {
		return true
	}
	for _, role := range p.rolesByCategory[category] {
		if actor.HasRole(role) {
			return true
		}
	}
	return false
}
