package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	v := NewVerifier("key_secret", "hook_secret")
	good := Sign("key_secret", "order_123|pay_456")

	assert.True(t, v.VerifySignature("order_123", "pay_456", good))
	assert.False(t, v.VerifySignature("order_123", "pay_789", good))
	assert.False(t, v.VerifySignature("order_123", "pay_456", good[:len(good)-1]+"0"))
	assert.False(t, v.VerifySignature("order_123", "pay_456", ""))
	assert.False(t, NewVerifier("", "").VerifySignature("order_123", "pay_456", good))
}

func TestVerifyWebhookSignature(t *testing.T) {
	v := NewVerifier("key_secret", "hook_secret")
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, v.VerifyWebhookSignature(body, Sign("hook_secret", string(body))))
	assert.False(t, v.VerifyWebhookSignature(body, Sign("key_secret", string(body))))
	assert.False(t, v.VerifyWebhookSignature([]byte(`{}`), Sign("hook_secret", string(body))))
}
