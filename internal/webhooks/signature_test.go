package webhooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignKnownVector(t *testing.T) {
	// A receiver holding the same secret must be able to recompute this
	// exact header value.
	body := []byte(`{"post_id":"42"}`)
	sig := Sign("s3cr3t", body)

	assert.Equal(t, "sha256=d669da2f309332c7bfdb5a5b92645d3876e3f303da568bd235960d577d667d43", sig)
}

func TestSignDependsOnSecretAndBody(t *testing.T) {
	body := []byte(`{"post_id":"42"}`)

	assert.NotEqual(t, Sign("s3cr3t", body), Sign("other", body))
	assert.NotEqual(t, Sign("s3cr3t", body), Sign("s3cr3t", []byte(`{"post_id":"43"}`)))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"post_id":"42","voter_id":"7"}`)
	header := Sign("s3cr3t", body)

	assert.True(t, VerifySignature("s3cr3t", body, header))
	assert.False(t, VerifySignature("wrong", body, header))
	assert.False(t, VerifySignature("s3cr3t", []byte(`{}`), header))
}
