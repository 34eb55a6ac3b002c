package signature_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/fairlx/fanout/signature"
)

func TestSignKnownVector(t *testing.T) {
	payload := []byte(`{"event":"TASK_CREATED"}`)
	secret := "whsec_testsecret123"

	got := signature.Sign(payload, secret)

	// Compute expected HMAC-SHA256 independently.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if got != expected {
		t.Errorf("Sign() = %q, want %q", got, expected)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"event":"TASK_COMPLETED","project_id":"proj-1"}`)
	secret := "whsec_roundtripsecret"

	sig := signature.Sign(payload, secret)
	if !signature.Verify(payload, secret, sig) {
		t.Error("Verify() returned false for valid signature")
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	payload := []byte(`{"original":true}`)
	secret := "whsec_tampersecret"

	sig := signature.Sign(payload, secret)

	tampered := []byte(`{"original":false}`)
	if signature.Verify(tampered, secret, sig) {
		t.Error("Verify() returned true for tampered payload")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	payload := []byte(`{"data":"value"}`)

	sig := signature.Sign(payload, "whsec_correct")

	if signature.Verify(payload, "whsec_wrong", sig) {
		t.Error("Verify() returned true for wrong secret")
	}
}

func TestSignatureFormat(t *testing.T) {
	sig := signature.Sign([]byte("test"), "secret")

	// SHA256 = 32 bytes = 64 hex chars, no prefix.
	if len(sig) != 64 {
		t.Errorf("expected signature length 64, got %d", len(sig))
	}
	if _, err := hex.DecodeString(sig); err != nil {
		t.Errorf("signature is not valid hex: %v", err)
	}
}

func TestSignDeterministic(t *testing.T) {
	payload := []byte(`{"stable":"body"}`)
	secret := "whsec_deterministic"

	if signature.Sign(payload, secret) != signature.Sign(payload, secret) {
		t.Error("Sign() is not deterministic for identical input")
	}
}
