package identity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/millbrook/go-identity"
)

func TestSessionObjectGetters(t *testing.T) {
	id := uuid.New()
	issuedAt := time.Now()

	session := &identity.SessionObject{
		UserID:   id.String(),
		Audience: []string{"app"},
		Issuer:   "test-issuer",
		IssuedAt: &issuedAt,
		Data:     map[string]any{"role": identity.RoleAdmin},
	}

	assert.Equal(t, id.String(), session.GetUserID())
	assert.Equal(t, []string{"app"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &issuedAt, session.GetIssuedAt())
	assert.Equal(t, identity.RoleAdmin, session.GetData()["role"])

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSessionObjectGetUserUUIDInvalid(t *testing.T) {
	session := &identity.SessionObject{UserID: "not-a-uuid"}
	_, err := session.GetUserUUID()
	assert.Error(t, err)
}
