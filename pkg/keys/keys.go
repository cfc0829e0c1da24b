// Package keys generates and verifies Pollbase API keys.
//
// Raw keys are shown once at creation; only hashes are stored. New hashes
// use Argon2id in PHC format. SHA-256 hashes (prefixed or bare hex) remain
// verifiable for keys minted by older releases.
package keys

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
)

// Prefix marks every Pollbase API key. It lets log scrubbers and secret
// scanners recognize leaked keys.
const Prefix = "pb_"

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// Generate mints a new raw API key: the pb_ prefix plus two UUIDs worth of
// entropy, hex-encoded without dashes.
func Generate() string {
	a := uuid.New()
	b := uuid.New()
	return Prefix + hex.EncodeToString(a[:]) + hex.EncodeToString(b[:])
}

// IsKey reports whether s looks like a Pollbase API key.
func IsKey(s string) bool {
	return strings.HasPrefix(s, Prefix) && len(s) > len(Prefix)
}

// argon2idParams follows the OWASP minimum configuration.
// Memory: 47 MiB, Iterations: 1, Parallelism: 1.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash returns an Argon2id hash of the raw key in PHC format:
// $argon2id$v=19$m=48128,t=1,p=1$<salt>$<hash>
func Hash(rawKey string) (string, error) {
	return argon2id.CreateHash(rawKey, argon2idParams)
}

// HashSHA256 returns the SHA-256 hex hash of the raw key. Kept for
// verifying keys minted before the Argon2id migration.
func HashSHA256(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// DetectHashType identifies the algorithm of a stored hash: "argon2id" for
// PHC format, "sha256" for prefixed or bare hex, "unknown" otherwise.
func DetectHashType(storedHash string) string {
	if strings.HasPrefix(storedHash, "$argon2id$") {
		return "argon2id"
	}
	if strings.HasPrefix(storedHash, "sha256:") {
		return "sha256"
	}
	// Bare SHA-256 hex is exactly 64 hex characters.
	if len(storedHash) == 64 && isHexString(storedHash) {
		return "sha256"
	}
	return "unknown"
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// Verify checks a raw key against a stored hash of any supported format.
// Returns (true, nil) on match, (false, nil) on mismatch, and
// (false, ErrUnknownHashType) for unrecognized hash formats.
func Verify(rawKey, storedHash string) (bool, error) {
	switch DetectHashType(storedHash) {
	case "argon2id":
		return safeArgon2idCompare(rawKey, storedHash)

	case "sha256":
		expected := strings.TrimPrefix(storedHash, "sha256:")
		computed := HashSHA256(rawKey)
		// Constant-time comparison to prevent timing attacks.
		return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1, nil

	default:
		return false, ErrUnknownHashType
	}
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery. The underlying argon2 library panics on malformed hashes with
// invalid parameters (t=0, p=0); Verify must never panic on stored data.
func safeArgon2idCompare(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}
