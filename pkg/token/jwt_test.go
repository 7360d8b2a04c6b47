package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("secret", 7)

	tokenStr, err := m.GenerateToken("user-1", "13800000001")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "13800000001", claims.PhoneNumber)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	tokenStr, err := NewJWTManager("secret-a", 7).GenerateToken("user-1", "13800000001")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", 7).VerifyToken(tokenStr)
	assert.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	_, err := NewJWTManager("secret", 7).VerifyToken("not-a-token")
	assert.Error(t, err)
}
