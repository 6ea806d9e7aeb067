package model

import "fmt"

// Permission is a single access level granted to an invitee or
// collaboration-request recipient.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

// Valid reports whether p is one of the known permission levels.
func (p Permission) Valid() bool {
	switch p {
	case PermissionRead, PermissionWrite, PermissionAdmin:
		return true
	}
	return false
}

// ValidatePermissions checks that perms is a non-empty set of known
// permission levels with no duplicates.
func ValidatePermissions(perms []Permission) error {
	if len(perms) == 0 {
		return fmt.Errorf("permission set must not be empty")
	}
	seen := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		if !p.Valid() {
			return fmt.Errorf("unknown permission %q", p)
		}
		if seen[p] {
			return fmt.Errorf("duplicate permission %q", p)
		}
		seen[p] = true
	}
	return nil
}

// HasWrite reports whether the set grants write or admin access.
func HasWrite(perms []Permission) bool {
	for _, p := range perms {
		if p == PermissionWrite || p == PermissionAdmin {
			return true
		}
	}
	return false
}
