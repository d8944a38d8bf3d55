package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tenantgate/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct-pw")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-pw", hash)

	require.NoError(t, Verify("correct-pw", hash))

	err = Verify("wrong-pw", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsEmptyAndOversized(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 80))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestVerifyMalformedHashIsInternal(t *testing.T) {
	err := Verify("pw", "not-a-bcrypt-hash")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestVerifyDecoyAcceptsAnyInput(t *testing.T) {
	assert.NotPanics(t, func() {
		VerifyDecoy("whatever")
		VerifyDecoy("")
	})
	assert.NotEmpty(t, decoyHash)
}
