package identity_test

import (
	"context"
	"database/sql"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	identity "github.com/millbrook/go-identity"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func userArg(args mock.Arguments, index int) *identity.User {
	if v := args.Get(index); v != nil {
		return v.(*identity.User)
	}
	return nil
}

// MockUsers implements identity.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	args := m.Called(ctx, identifier)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, user)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, tx, user)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, user)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, tx, user)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) ActivateByKey(ctx context.Context, key string) (*identity.User, error) {
	args := m.Called(ctx, key)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) ActivateByKeyTx(ctx context.Context, tx bun.IDB, key string) (*identity.User, error) {
	args := m.Called(ctx, tx, key)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) SetResetKey(ctx context.Context, id uuid.UUID, key string) (*identity.User, error) {
	args := m.Called(ctx, id, key)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) SetResetKeyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, key string) (*identity.User, error) {
	args := m.Called(ctx, tx, id, key)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) RedeemResetKey(ctx context.Context, key, passwordHash string) (*identity.User, error) {
	args := m.Called(ctx, key, passwordHash)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) RedeemResetKeyTx(ctx context.Context, tx bun.IDB, key, passwordHash string) (*identity.User, error) {
	args := m.Called(ctx, tx, key, passwordHash)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) ChangePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepositoryManager implements identity.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() identity.Users {
	args := m.Called()
	return args.Get(0).(identity.Users)
}

// expectRunInTx wires RunInTx to invoke the given closure with a zero-value
// transaction, mirroring how the real manager drives the workflow body.
func expectRunInTx(m *MockRepositoryManager) *mock.Call {
	return m.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			if err := fn(args.Get(0).(context.Context), tx); err != nil {
				panic(err)
			}
		})
}

// MockUserTracker implements identity.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	args := m.Called(ctx, identifier)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockActivitySink implements identity.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event identity.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMailer implements identity.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendActivation(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockCaptchaVerifier implements identity.CaptchaVerifier
type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// stubKeys always mints the same key so tests can assert on it.
type stubKeys struct {
	key string
}

func (s stubKeys) NewKey() string { return s.key }

// memDirectory is a mutex-guarded in-memory identity.Users used by the
// lifecycle and concurrency tests. Key redemption follows the same
// compare-and-set contract as the SQL implementation: the match and the state
// change happen under one lock acquisition.
type memDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newMemDirectory() *memDirectory {
	return &memDirectory{users: map[uuid.UUID]*identity.User{}}
}

var _ identity.Users = (*memDirectory)(nil)

func (d *memDirectory) clone(u *identity.User) *identity.User {
	cp := *u
	return &cp
}

func (d *memDirectory) notFound(meta map[string]any) error {
	return repository.NewRecordNotFound().WithMetadata(meta)
}

func (d *memDirectory) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[id]; ok {
		return d.clone(u), nil
	}
	return nil, d.notFound(map[string]any{"id": id.String()})
}

func (d *memDirectory) GetByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if u.Email == identifier || u.Username == identifier || u.ID.String() == identifier {
			return d.clone(u), nil
		}
	}
	return nil, d.notFound(map[string]any{"identifier": identifier})
}

func (d *memDirectory) Register(ctx context.Context, user *identity.User) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if u.Email == user.Email {
			return nil, goerrors.New("duplicate email", goerrors.CategoryConflict).
				WithMetadata(map[string]any{"email": user.Email})
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = identity.RoleEditor
	}

	d.users[user.ID] = d.clone(user)
	return d.clone(user), nil
}

func (d *memDirectory) RegisterTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	return d.Register(ctx, user)
}

func (d *memDirectory) Update(ctx context.Context, user *identity.User) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.ID]; !ok {
		return nil, d.notFound(map[string]any{"id": user.ID.String()})
	}
	d.users[user.ID] = d.clone(user)
	return d.clone(user), nil
}

func (d *memDirectory) UpdateTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	return d.Update(ctx, user)
}

func (d *memDirectory) ActivateByKey(ctx context.Context, key string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if !u.IsActivated && u.ActivationKey == key {
			u.IsActivated = true
			u.ActivationKey = ""
			return d.clone(u), nil
		}
	}
	return nil, d.notFound(map[string]any{"activation_key": key})
}

func (d *memDirectory) ActivateByKeyTx(ctx context.Context, tx bun.IDB, key string) (*identity.User, error) {
	return d.ActivateByKey(ctx, key)
}

func (d *memDirectory) SetResetKey(ctx context.Context, id uuid.UUID, key string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return nil, d.notFound(map[string]any{"id": id.String()})
	}
	u.PasswordResetKey = key
	return d.clone(u), nil
}

func (d *memDirectory) SetResetKeyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, key string) (*identity.User, error) {
	return d.SetResetKey(ctx, id, key)
}

func (d *memDirectory) RedeemResetKey(ctx context.Context, key, passwordHash string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if u.PasswordResetKey != "" && u.PasswordResetKey == key {
			u.PasswordHash = passwordHash
			u.PasswordResetKey = ""
			return d.clone(u), nil
		}
	}
	return nil, d.notFound(map[string]any{"password_reset_key": key})
}

func (d *memDirectory) RedeemResetKeyTx(ctx context.Context, tx bun.IDB, key, passwordHash string) (*identity.User, error) {
	return d.RedeemResetKey(ctx, key, passwordHash)
}

func (d *memDirectory) ChangePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return d.notFound(map[string]any{"id": id.String()})
	}
	u.PasswordHash = passwordHash
	return nil
}

func (d *memDirectory) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return d.ChangePassword(ctx, id, passwordHash)
}

func (d *memDirectory) TrackAttemptedLogin(ctx context.Context, user *identity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[user.ID]; ok {
		u.LoginAttempts = user.LoginAttempts + 1
	}
	return nil
}

func (d *memDirectory) TrackSuccessfulLogin(ctx context.Context, user *identity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[user.ID]; ok {
		u.LoginAttempts = 0
		u.LoginAttemptAt = nil
	}
	return nil
}

// memRepoManager wraps a memDirectory as an identity.RepositoryManager.
type memRepoManager struct {
	dir *memDirectory
}

var _ identity.RepositoryManager = (*memRepoManager)(nil)

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{dir: newMemDirectory()}
}

func (m *memRepoManager) Validate() error { return nil }
func (m *memRepoManager) MustValidate()   {}

func (m *memRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *memRepoManager) Users() identity.Users { return m.dir }
