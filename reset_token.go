package handraise

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/goliatone/go-errors"
)

// ResetTokenTTL is the window in which a recovery token can be consumed.
var ResetTokenTTL = "10m"

// GenerateResetToken mints a high-entropy one-time secret. The raw value goes
// out-of-band to the user; only its hash is ever persisted.
func GenerateResetToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, errors.CategoryInternal, "failed to generate reset token")
	}

	raw = hex.EncodeToString(buf)
	return raw, HashResetToken(raw), nil
}

// HashResetToken maps a raw recovery token to its stored form. One-way: we can
// match a presented token against the store but never recover the original.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
