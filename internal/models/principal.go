package models

import "github.com/google/uuid"

// Principal is the authenticated caller extracted from a verified access
// token. Handlers receive it explicitly via the request context instead of
// probing ad-hoc flags.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
