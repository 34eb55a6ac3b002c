package signature

import "crypto/hmac"

// Verify checks whether sig matches the expected HMAC-SHA256 signature for
// the payload and secret. Comparison is constant-time.
func Verify(payload []byte, secret, sig string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(sig))
}
