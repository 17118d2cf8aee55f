package domain

// Actor is the identity behind an inbound platform event: the user ID plus
// whatever the platform asserted about their roles and privileges.
type Actor struct {
	ID            string
	Roles         []string
	Administrator bool
}

// HasRole reports whether the actor holds the given role handle.
func (a Actor) HasRole(roleID string) bool {
	for _, r := range a.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
