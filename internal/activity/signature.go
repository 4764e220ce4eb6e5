package activity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks that a webhook payload was produced by the configured
// source host. An empty Secret disables verification entirely; running
// without a secret is an explicit deployment choice.
type Verifier struct {
	Secret string
}

// Verify computes an HMAC-SHA256 digest of the exact raw request body and
// compares it against the provided "sha256=<hex>" signature header value.
// It reports false on any mismatch, including a missing signature while a
// secret is configured; it never errors.
func (v Verifier) Verify(body []byte, signature string) bool {
	if v.Secret == "" {
		return true
	}
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(v.Secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
