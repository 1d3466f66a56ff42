package identity

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivateUserSQL consumes an activation key: the key match and the state
// flip happen in one statement so a key can activate at most one record,
// exactly once, even under concurrent redemption.
var ActivateUserSQL = `UPDATE "users" AS "usr"
SET
	"is_activated" = TRUE,
	"activation_key" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."is_activated" = FALSE
AND (
	"usr"."activation_key" = ?
) RETURNING *;`

// RedeemResetKeySQL is the compare-and-set redemption of a password reset
// key: the new hash is written and the key cleared only where the key still
// matches, guaranteeing at most one successful redemption.
var RedeemResetKeySQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"password_reset_key" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."password_reset_key" = ?
) RETURNING *;`

// SetResetKeySQL overwrites any outstanding reset key, implicitly
// invalidating a prior request.
var SetResetKeySQL = `UPDATE "users" AS "usr"
SET
	"password_reset_key" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var ChangePasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the durable directory of accounts and the sole owner of persisted
// identity state. Key consumption (activation, reset redemption) is atomic at
// the single-record level; no operation here takes long-lived locks.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	ActivateByKey(ctx context.Context, key string) (*User, error)
	ActivateByKeyTx(ctx context.Context, tx bun.IDB, key string) (*User, error)
	SetResetKey(ctx context.Context, id uuid.UUID, key string) (*User, error)
	SetResetKeyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, key string) (*User, error)
	RedeemResetKey(ctx context.Context, key, passwordHash string) (*User, error)
	RedeemResetKeyTx(ctx context.Context, tx bun.IDB, key, passwordHash string) (*User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
}

var (
	_ Users       = (*users)(nil)
	_ UserTracker = (*users)(nil)
)

// NewUsersRepository builds the bun-backed directory implementation.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		repo: repo,
		db:   db,
	}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	columns := []string{"email", "username"}
	identifier = strings.TrimSpace(identifier)
	if _, err := uuid.Parse(identifier); err == nil {
		columns = []string{"id"}
	}

	for _, column := range columns {
		record := &User{}
		err := a.db.NewSelect().Model(record).
			Where("?TableAlias."+column+" = ?", identifier).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.repo.CreateTx(ctx, tx, user)
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, user)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.repo.UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String()))
}

func (a *users) ActivateByKey(ctx context.Context, key string) (*User, error) {
	return a.ActivateByKeyTx(ctx, a.db, key)
}

func (a *users) ActivateByKeyTx(ctx context.Context, tx bun.IDB, key string) (*User, error) {
	if key == "" {
		return nil, ErrNoEmptyString
	}

	res, err := a.repo.RawTx(ctx, tx, ActivateUserSQL, key)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"activation_key": key})
	}

	return res[0], nil
}

func (a *users) SetResetKey(ctx context.Context, id uuid.UUID, key string) (*User, error) {
	return a.SetResetKeyTx(ctx, a.db, id, key)
}

func (a *users) SetResetKeyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, key string) (*User, error) {
	if key == "" {
		return nil, ErrNoEmptyString
	}

	res, err := a.repo.RawTx(ctx, tx, SetResetKeySQL, key, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

func (a *users) RedeemResetKey(ctx context.Context, key, passwordHash string) (*User, error) {
	return a.RedeemResetKeyTx(ctx, a.db, key, passwordHash)
}

func (a *users) RedeemResetKeyTx(ctx context.Context, tx bun.IDB, key, passwordHash string) (*User, error) {
	if key == "" || passwordHash == "" {
		return nil, ErrNoEmptyString
	}

	res, err := a.repo.RawTx(ctx, tx, RedeemResetKeySQL, passwordHash, key)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"password_reset_key": key})
	}

	return res[0], nil
}

func (a *users) ChangePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ChangePasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	if passwordHash == "" {
		return ErrNoEmptyString
	}

	res, err := a.repo.RawTx(ctx, tx, ChangePasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: the ORM update path will not null out login_attempt_at, so we go raw.
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = CURRENT_TIMESTAMP,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"login_attempt_at" = CURRENT_TIMESTAMP,
			"login_attempts" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, user.LoginAttempts+1, user.ID).Exec(ctx)

	return err
}

func prepareUserDefaults(user *User) {
	if user == nil {
		return
	}

	if user.Role == "" {
		user.Role = RoleEditor
	}

	if user.Username == "" {
		user.Username = deriveUsername(user.Email)
	}
}

func deriveUsername(email string) string {
	if strings.Contains(email, "@") {
		return strings.Split(email, "@")[0]
	}
	return email
}
