package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks gateway signatures with the shared secrets.
type Verifier struct {
	keySecret     string
	webhookSecret string
}

func NewVerifier(keySecret, webhookSecret string) Verifier {
	return Verifier{keySecret: keySecret, webhookSecret: webhookSecret}
}

// VerifySignature checks the checkout signature, hex(HMAC-SHA256(secret,
// orderID|paymentID)). A mismatch is a normal false result.
func (v Verifier) VerifySignature(remoteOrderID, remotePaymentID, signature string) bool {
	if v.keySecret == "" || remoteOrderID == "" || remotePaymentID == "" || signature == "" {
		return false
	}
	expected := Sign(v.keySecret, remoteOrderID+"|"+remotePaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body.
func (v Verifier) VerifyWebhookSignature(body []byte, signature string) bool {
	if v.webhookSecret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(v.webhookSecret, string(body))), []byte(signature))
}

// Sign returns hex(HMAC-SHA256(secret, message)).
func Sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
