// Package authz centralizes ownership and role checks for mutating operations.
package authz

import "aimarket/internal/models"

// IsAdmin reports whether the role grants administrative access.
func IsAdmin(role string) bool {
	return role == models.RoleAdmin
}

// CanMutate reports whether the actor may update or delete a resource
// owned by ownerID. Owners and admins may mutate; everyone else may not.
func CanMutate(actorID uint, actorRole string, ownerID uint) bool {
	return actorID == ownerID || IsAdmin(actorRole)
}
