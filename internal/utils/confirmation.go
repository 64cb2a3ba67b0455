package utils

import (
	"crypto/hmac"   // HMAC signing
	"crypto/sha256" // SHA-256 hash for the MAC
	"encoding/hex"  // Hex encoding of the digest
	"fmt"           // Fingerprint formatting
	"strconv"       // Timestamp parsing
	"strings"       // Code splitting
	"time"          // Expiry window

	"reviewhub/internal/domain" // User model feeding the fingerprint
)

// Confirmation codes are a proof-of-email-ownership credential issued at
// signup and exchanged once for an access token. A code is the hex issue
// timestamp plus an HMAC-SHA256 over the user's mutable state, so any
// change to the user record invalidates every outstanding code.

// userFingerprint captures the state a confirmation code is bound to.
// The modification timestamp enters at second granularity: column types
// like mysql's datetime(3) keep fewer fractional digits than Go's
// time.Time, so a sub-second fingerprint would never survive a round
// trip through the store.
func userFingerprint(u *domain.User, issuedAt int64) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s|%d|%d",
		u.ID,               // Identity
		u.Username,         // Mutable credential state
		u.Email,            // Mutable credential state
		u.Role,             // Role changes revoke outstanding codes
		u.FirstName,        // Profile changes revoke outstanding codes
		u.Bio,              // Profile changes revoke outstanding codes
		u.UpdatedAt.Unix(), // Any saved mutation bumps this
		issuedAt,           // Issue time, bounds the validity window
	)
}

// signFingerprint computes the hex HMAC-SHA256 of a fingerprint
func signFingerprint(fingerprint, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret)) // Keyed MAC
	mac.Write([]byte(fingerprint))              // Feed the fingerprint
	return hex.EncodeToString(mac.Sum(nil))     // Hex digest
}

// GenerateConfirmationCode issues a code for the user's current state
func GenerateConfirmationCode(u *domain.User, secret string, now time.Time) string {
	issuedAt := now.Unix() // Issue timestamp, embedded in the code
	sig := signFingerprint(userFingerprint(u, issuedAt), secret)
	return strconv.FormatInt(issuedAt, 16) + "-" + sig // <hex ts>-<hex mac>
}

// CheckConfirmationCode validates a code against the user's current state.
// It never errors; a malformed, forged, stale or expired code is simply invalid.
func CheckConfirmationCode(u *domain.User, code, secret string, now time.Time, ttl time.Duration) bool {
	parts := strings.SplitN(code, "-", 2) // <hex ts>-<hex mac>
	if len(parts) != 2 {
		return false // Malformed code
	}
	issuedAt, err := strconv.ParseInt(parts[0], 16, 64) // Decode the issue timestamp
	if err != nil {
		return false // Not a hex timestamp
	}
	// Reject codes from the future or past the validity window
	if issuedAt > now.Unix() || now.Sub(time.Unix(issuedAt, 0)) > ttl {
		return false
	}
	// Recompute the MAC against the user's current state; constant-time compare
	expected := signFingerprint(userFingerprint(u, issuedAt), secret)
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}
