package hasher

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Cost factor for bcrypt, deliberately expensive
const bcryptCost = 12

// Hasher creates or compares password hashes
type Hasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Bcrypt password hasher. Passwords are pre-hashed with sha256 so values
// longer than bcrypt's 72-byte input limit still hash fully.
type Bcrypt struct{}

func (h Bcrypt) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcryptCost)
	return string(hash), err
}

func (h Bcrypt) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
