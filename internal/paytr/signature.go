package paytr

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Sign computes the PayTR token: SHA-256 over the UTF-8 concatenation of the
// fields in the given order followed by the secret, base64-encoded. Field
// order is part of the wire contract; callers pass an explicit slice so the
// order is visible at the call site and cannot be scrambled by map iteration.
func Sign(fields []string, secret string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(f))
	}
	h.Write([]byte(secret))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify recomputes the token and compares it to the candidate in constant
// time. The webhook endpoint is reachable by anyone who knows the URL, so the
// comparison must not leak how many leading bytes matched.
func Verify(fields []string, secret, candidate string) bool {
	expected := Sign(fields, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}
