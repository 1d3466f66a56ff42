package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest can view content only
	RoleGuest UserRole = "guest"
	// RoleEditor can view and edit content
	RoleEditor UserRole = "editor"
	// RoleAdmin can manage site-wide settings
	RoleAdmin UserRole = "admin"
)

// User is the directory record for an account. ActivationKey is present only
// while the account is unactivated; PasswordResetKey only while a reset
// request is outstanding. Both are single use and cleared atomically with the
// state they gate.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role             UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName        string     `bun:"first_name" json:"first_name,omitempty"`
	LastName         string     `bun:"last_name" json:"last_name,omitempty"`
	Username         string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash     string     `bun:"password_hash" json:"-"`
	IsActivated      bool       `bun:"is_activated" json:"is_activated,omitempty"`
	ActivationKey    string     `bun:"activation_key,nullzero" json:"-"`
	PasswordResetKey string     `bun:"password_reset_key,nullzero" json:"-"`
	LoginAttempts    int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt   *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt       *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SignupStep is the outcome stage of a signup-related workflow
type SignupStep = string

const (
	// SignupClosed means signup is disabled or credentials are managed
	// externally; callers should redirect home rather than show an error
	SignupClosed SignupStep = "signup-closed"
	// SignupComplete means the record exists and a confirmation email was queued
	SignupComplete SignupStep = "signup-complete"
	// SignupRestart means no record matched; the caller should restart signup
	SignupRestart SignupStep = "signup-restart"
	// SignupAlreadyActivated means the account finished activation earlier
	SignupAlreadyActivated SignupStep = "already-activated"
)

// ProfileStep is the outcome stage of a profile workflow
type ProfileStep = string

const (
	// ProfileLoginRequired means the caller must authenticate first; also used
	// for tampered payloads that carry no usable record id
	ProfileLoginRequired ProfileStep = "login-required"
	// ProfileLoaded means the record was resolved for display
	ProfileLoaded ProfileStep = "profile-loaded"
	// ProfileSaved means the update workflow ran; check the per-operation flags
	ProfileSaved ProfileStep = "profile-saved"
)
