package activity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := Verifier{Secret: "tops3cret"}
	body := []byte(`{"repository":{"html_url":"https://github.com/acme/rocket"}}`)
	if !v.Verify(body, sign("tops3cret", body)) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	v := Verifier{Secret: "tops3cret"}
	body := []byte(`{"ref":"refs/heads/main"}`)
	sig := sign("tops3cret", body)
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] ^= 0x01
	if v.Verify(tampered, sig) {
		t.Fatal("expected tampered body to fail verification")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := Verifier{Secret: "tops3cret"}
	body := []byte(`{}`)
	if v.Verify(body, sign("other", body)) {
		t.Fatal("expected signature from wrong secret to fail")
	}
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	v := Verifier{Secret: "tops3cret"}
	if v.Verify([]byte(`{}`), "") {
		t.Fatal("expected missing signature to fail when secret configured")
	}
}

func TestVerifySkippedWithoutSecret(t *testing.T) {
	v := Verifier{}
	if !v.Verify([]byte(`{}`), "") {
		t.Fatal("expected verification to pass when no secret configured")
	}
	if !v.Verify([]byte(`{}`), "sha256=bogus") {
		t.Fatal("expected any signature to pass when no secret configured")
	}
}
