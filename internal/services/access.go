package services

import (
	"github.com/hqvuong/work-order-api/internal/models"
)

// Principal identifies the already-authenticated caller of a request.
type Principal struct {
	UserID uint64
	Role   models.UserRole
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// AccessScope is the resolved visibility of a search request: the whole
// collection, or only the caller's own worklist.
type AccessScope struct {
	Mine   bool
	UserID uint64
}

// ResolveAccessScope derives visibility from the role and the caller's
// explicit intent, never from the role alone. A worker is always pinned to
// tasks they are assigned to; an admin sees everything unless they ask for
// their personal worklist via restrictToMine. This keeps both the
// management view and the personal view of an admin behind one entry point.
func ResolveAccessScope(p Principal, restrictToMine bool) AccessScope {
	if !p.IsAdmin() || restrictToMine {
		return AccessScope{Mine: true, UserID: p.UserID}
	}
	return AccessScope{}
}
