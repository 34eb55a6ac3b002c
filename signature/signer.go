// Package signature provides HMAC-SHA256 webhook signing and verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign generates the HMAC-SHA256 signature for the given payload using the
// webhook's shared secret. The content signed is the exact serialized body;
// receivers recompute the digest over the bytes they received to
// authenticate the sender. Returns a lowercase hex digest.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
