package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	identity "github.com/millbrook/go-identity"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()

	_, ok := identity.UserFromContext(ctx)
	assert.False(t, ok)

	user := &identity.User{ID: uuid.New(), Email: "test@example.com"}
	ctx = identity.WithUserContext(ctx, user)

	got, ok := identity.UserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()

	_, ok := identity.PrincipalFromContext(ctx)
	assert.False(t, ok)

	id := uuid.NewString()
	ctx = identity.WithPrincipal(ctx, id)

	got, ok := identity.PrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestPrincipalContextEmptyID(t *testing.T) {
	ctx := identity.WithPrincipal(context.Background(), "")
	_, ok := identity.PrincipalFromContext(ctx)
	assert.False(t, ok)
}
