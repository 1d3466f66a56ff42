package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	identity "github.com/millbrook/go-identity"
)

// MockIdentity implements identity.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	ts := identity.NewTokenService(signingKey, 1, "test-issuer", jwt.ClaimStrings{"test-audience"}, testLogger{})

	ident := new(MockIdentity)
	ident.On("ID").Return("user-123")
	ident.On("Role").Return(identity.RoleAdmin)

	token, err := ts.Generate(ident)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, identity.RoleAdmin, claims.Role())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceValidateRejectsBadTokens(t *testing.T) {
	signingKey := []byte("test-signing-key")
	ts := identity.NewTokenService(signingKey, 1, "test-issuer", jwt.ClaimStrings{"test-audience"}, testLogger{})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := ts.Validate("not-a-token")
		require.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("Wrong signing key", func(t *testing.T) {
		other := identity.NewTokenService([]byte("different-key"), 1, "test-issuer", jwt.ClaimStrings{"test-audience"}, testLogger{})

		ident := new(MockIdentity)
		ident.On("ID").Return("user-123")
		ident.On("Role").Return(identity.RoleEditor)

		token, err := other.Generate(ident)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		now := time.Now()
		claims := &identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				Audience:  jwt.ClaimStrings{"test-audience"},
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
			UID: "user-123",
		}

		token, err := ts.SignClaims(claims)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		require.Error(t, err)
		assert.Equal(t, identity.ErrTokenExpired, err)
		assert.True(t, identity.IsTokenExpiredError(err))
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		other := identity.NewTokenService(signingKey, 1, "other-issuer", jwt.ClaimStrings{"test-audience"}, testLogger{})

		ident := new(MockIdentity)
		ident.On("ID").Return("user-123")
		ident.On("Role").Return(identity.RoleEditor)

		token, err := other.Generate(ident)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.Error(t, err)
	})
}

func TestSignClaimsNil(t *testing.T) {
	ts := identity.NewTokenService([]byte("key"), 1, "", nil, nil)
	_, err := ts.SignClaims(nil)
	assert.Error(t, err)
}
