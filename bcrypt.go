package handraise

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is above the bcrypt default; login latency is an
// acceptable price for slowing offline cracking of a leaked store.
const passwordHashCost = 14

// HashPassword hashes a cleartext credential for storage. Empty secrets are
// rejected before they ever reach the hasher.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(h), err
}

// ComparePasswordAndHash checks the cleartext password against a stored
// hash. A mismatch returns ErrMismatchedHashAndPassword; anything else means
// the stored value is not a usable hash.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
