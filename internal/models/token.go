package models

import "time"

// IssuedToken is a signed token together with its expiry moment.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// OneTimeToken is a short-lived single-use token. Plain goes to the user
// out of band (mail link), only Hash and ExpiresAt are ever persisted.
type OneTimeToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}
