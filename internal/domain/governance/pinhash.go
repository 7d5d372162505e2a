package governance

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	pinSaltBytes = 16

	minPINLength = 4
	maxPINLength = 20
)

// PINHash is a salted SHA-256 digest of an override PIN, stored as
// "salt:hash" with both parts hex-encoded. PINs never persist in clear.
type PINHash struct {
	salt string
	hash string
}

// NewPINHash hashes a clear-text PIN with a fresh random salt.
func NewPINHash(pin string) (PINHash, error) {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return PINHash{}, fmt.Errorf("PIN must be between %d and %d characters", minPINLength, maxPINLength)
	}

	saltRaw := make([]byte, pinSaltBytes)
	if _, err := rand.Read(saltRaw); err != nil {
		return PINHash{}, fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(saltRaw)

	return PINHash{salt: salt, hash: digestPIN(salt, pin)}, nil
}

// ParsePINHash parses the stored "salt:hash" form.
func ParsePINHash(encoded string) (PINHash, error) {
	salt, hash, ok := strings.Cut(encoded, ":")
	if !ok || salt == "" || hash == "" {
		return PINHash{}, fmt.Errorf("malformed PIN hash")
	}
	return PINHash{salt: salt, hash: hash}, nil
}

func digestPIN(salt, pin string) string {
	sum := sha256.Sum256([]byte(salt + ":" + pin))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the candidate PIN matches, in constant time.
func (p PINHash) Verify(pin string) bool {
	candidate := digestPIN(p.salt, pin)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(p.hash)) == 1
}

// Encode returns the persistable "salt:hash" form.
func (p PINHash) Encode() string {
	return p.salt + ":" + p.hash
}
