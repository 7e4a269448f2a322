package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanmlakar/emrs/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "Alice Admin", "alice", model.RoleAdmin, 2)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)

	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice Admin", claims.Name)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, int64(2), claims.DepartmentID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret1", 1, "Admin", "admin", model.RoleAdmin, 1)
	require.NoError(t, err)

	_, err = ValidateToken("secret2", token)
	assert.Error(t, err)
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, err := GenerateToken(secret, 1, "Test", "test", model.RoleStaff, 1)
	require.NoError(t, err)
	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)

	// Should be within a few seconds of the configured lifetime.
	diff := time.Until(claims.ExpiresAt.Time) - TokenExpiry
	assert.Less(t, diff.Abs(), 5*time.Second)
}
