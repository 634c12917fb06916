package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, InitJWTSecret())

	token, err := GenerateJWT(42, "student", []string{"CS101", "MATH200"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := VerifyJWT(token)
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, "student", claims["role"])
	assert.Equal(t, []string{"CS101", "MATH200"}, ClaimLabels(claims))
}

func TestVerifyJWTRejectsTampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, InitJWTSecret())

	token, err := GenerateJWT(1, "admin", nil)
	require.NoError(t, err)

	_, err = VerifyJWT(token + "x")
	assert.Error(t, err)
}

func TestClaimLabelsMissing(t *testing.T) {
	assert.Nil(t, ClaimLabels(jwt.MapClaims{}))
}
