package summary

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize reduces formatting noise so that semantically identical requests
// from different clients land on the same cache entry: trims surrounding
// whitespace, lower-cases, and collapses internal whitespace runs.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint derives the content-addressed cache key for a request.
// Deterministic across processes and restarts; no salt.
func Fingerprint(text, context string) string {
	h := sha256.New()
	h.Write([]byte(Normalize(text)))
	h.Write([]byte{0})
	h.Write([]byte(Normalize(context)))
	return hex.EncodeToString(h.Sum(nil))
}
