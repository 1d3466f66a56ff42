package identity_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	identity "github.com/millbrook/go-identity"
)

func TestInitializePasswordResetHandler(t *testing.T) {
	ctx := context.Background()

	seed := func(repo *memRepoManager) *identity.User {
		user, err := repo.Users().Register(ctx, &identity.User{
			ID:          uuid.New(),
			Email:       "resetme@example.com",
			IsActivated: true,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("Mints and commits a reset key, then emails", func(t *testing.T) {
		repo := newMemRepoManager()
		mailer := new(MockMailer)
		sink := new(MockActivitySink)
		seed(repo)

		handler := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{}).
			WithMailer(mailer).
			WithKeyGenerator(stubKeys{key: "reset-key-1"}).
			WithActivitySink(sink).
			WithLogger(testLogger{})

		mailer.On("SendPasswordReset", mock.Anything, mock.MatchedBy(func(u *identity.User) bool {
			return u.PasswordResetKey == "reset-key-1"
		})).Return(nil).Once()
		sink.On("Record", mock.Anything, mock.MatchedBy(func(evt identity.ActivityEvent) bool {
			return evt.EventType == identity.ActivityEventPasswordResetRequest
		})).Return(nil).Once()

		var resp *identity.InitializePasswordResetResponse
		err := handler.Execute(ctx, identity.InitializePasswordResetMessage{
			Email: "resetme@example.com",
			OnResponse: func(r *identity.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.True(t, resp.Success)
		assert.True(t, resp.EmailSent)
		assert.Equal(t, "reset-key-1", resp.ResetKey)

		stored, err := repo.Users().GetByIdentifier(ctx, "resetme@example.com")
		require.NoError(t, err)
		assert.Equal(t, "reset-key-1", stored.PasswordResetKey)

		mailer.AssertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("A new request supersedes the outstanding key", func(t *testing.T) {
		repo := newMemRepoManager()
		seed(repo)

		first := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{}).
			WithKeyGenerator(stubKeys{key: "reset-key-1"}).
			WithLogger(testLogger{})
		second := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{}).
			WithKeyGenerator(stubKeys{key: "reset-key-2"}).
			WithLogger(testLogger{})

		require.NoError(t, first.Execute(ctx, identity.InitializePasswordResetMessage{Email: "resetme@example.com"}))
		require.NoError(t, second.Execute(ctx, identity.InitializePasswordResetMessage{Email: "resetme@example.com"}))

		stored, err := repo.Users().GetByIdentifier(ctx, "resetme@example.com")
		require.NoError(t, err)
		assert.Equal(t, "reset-key-2", stored.PasswordResetKey)

		// the superseded key no longer redeems
		_, err = repo.Users().RedeemResetKey(ctx, "reset-key-1", "whatever-hash")
		assert.Error(t, err)
	})

	t.Run("Unknown email is disclosed", func(t *testing.T) {
		repo := newMemRepoManager()
		handler := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{}).
			WithLogger(testLogger{})

		err := handler.Execute(ctx, identity.InitializePasswordResetMessage{Email: "nobody@example.com"})
		require.Error(t, err)
		assert.Equal(t, identity.ErrEmailNotFound, err)
	})

	t.Run("Demo deployments refuse credential changes", func(t *testing.T) {
		repo := newMemRepoManager()
		seed(repo)

		handler := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{DemoSite: true}).
			WithLogger(testLogger{})

		err := handler.Execute(ctx, identity.InitializePasswordResetMessage{Email: "resetme@example.com"})
		assert.Equal(t, identity.ErrDemoLock, err)

		stored, err := repo.Users().GetByIdentifier(ctx, "resetme@example.com")
		require.NoError(t, err)
		assert.Empty(t, stored.PasswordResetKey)
	})

	t.Run("Invalid email fails validation", func(t *testing.T) {
		repo := newMemRepoManager()
		handler := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{}).
			WithLogger(testLogger{})

		err := handler.Execute(ctx, identity.InitializePasswordResetMessage{Email: "not-an-email"})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, errors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	})

	t.Run("Email failure keeps the committed key", func(t *testing.T) {
		repo := newMemRepoManager()
		mailer := new(MockMailer)
		seed(repo)

		handler := identity.NewInitializePasswordResetHandler(repo, identity.SitePolicy{}).
			WithMailer(mailer).
			WithKeyGenerator(stubKeys{key: "reset-key-3"}).
			WithLogger(testLogger{})

		mailer.On("SendPasswordReset", mock.Anything, mock.Anything).
			Return(errors.New("smtp down")).Once()

		var resp *identity.InitializePasswordResetResponse
		err := handler.Execute(ctx, identity.InitializePasswordResetMessage{
			Email: "resetme@example.com",
			OnResponse: func(r *identity.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		assert.False(t, resp.EmailSent)
		assert.True(t, resp.Success)

		stored, err := repo.Users().GetByIdentifier(ctx, "resetme@example.com")
		require.NoError(t, err)
		assert.Equal(t, "reset-key-3", stored.PasswordResetKey)

		mailer.AssertExpectations(t)
	})
}
