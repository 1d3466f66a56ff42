package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ProfileModel carries the editable slice of a user record plus an optional
// new password.
type ProfileModel struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"confirm_password"`
}

// Validate will run validation rules. Password rules apply only when a
// password change is requested.
func (m ProfileModel) Validate() error {
	fields := []*validation.FieldRules{
		validation.Field(&m.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&m.Username, validation.Length(0, 100)),
		validation.Field(&m.FirstName, validation.Length(0, 200)),
		validation.Field(&m.LastName, validation.Length(0, 200)),
	}

	if m.Password != "" {
		fields = append(fields,
			validation.Field(&m.Password, validation.Length(8, 100)),
			validation.Field(&m.ConfirmPassword, validation.Required, validation.By(ValidateStringEquals(m.Password))),
		)
	}

	return validation.ValidateStruct(&m, fields...)
}

type GetProfileMessage struct {
	PrincipalID string `json:"principal_id"`
	OnResponse  func(resp *GetProfileResponse)
}

func (e GetProfileMessage) Type() string { return "identity.profile_get" }

type GetProfileResponse struct {
	Step ProfileStep
	User *User
}

// GetProfileHandler resolves the authenticated principal's own record for
// display. The only gate is being logged in.
type GetProfileHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewGetProfileHandler creates a handler with sane defaults.
func NewGetProfileHandler(repo RepositoryManager) *GetProfileHandler {
	return &GetProfileHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *GetProfileHandler) WithLogger(logger Logger) *GetProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *GetProfileHandler) Execute(ctx context.Context, event GetProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during profile load")
	default:
		return h.execute(ctx, event)
	}
}

func (h *GetProfileHandler) execute(ctx context.Context, event GetProfileMessage) error {
	resp := &GetProfileResponse{}

	if event.PrincipalID == "" {
		resp.Step = ProfileLoginRequired
		h.respond(event, resp)
		return nil
	}

	id, err := uuid.Parse(event.PrincipalID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid principal id")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load profile")
	}

	resp.Step = ProfileLoaded
	resp.User = user
	h.respond(event, resp)

	return nil
}

func (h *GetProfileHandler) respond(event GetProfileMessage, resp *GetProfileResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}

type UpdateProfileMessage struct {
	// PrincipalID is the authenticated principal performing the update. It is
	// passed explicitly; handlers never consult ambient session state.
	PrincipalID string       `json:"principal_id"`
	Model       ProfileModel `json:"model"`
	OnResponse  func(resp *UpdateProfileResponse)
}

func (e UpdateProfileMessage) Type() string { return "identity.profile_update" }

// UpdateProfileResponse reports the two sub-operations independently: the
// profile-field update and the password change can each succeed or fail on
// their own, and the caller sees both outcomes.
type UpdateProfileResponse struct {
	Step            ProfileStep
	ProfileUpdated  bool
	PasswordUpdated bool
	ProfileError    error
	PasswordError   error
	User            *User
}

// UpdateProfileHandler applies owner-only profile mutations. The ordered
// gates: authenticated principal, usable record id, ownership, demo lock,
// field validation. Ownership violations are recorded through the
// ActivitySink before the error is returned.
type UpdateProfileHandler struct {
	repo     RepositoryManager
	policy   Policy
	activity ActivitySink
	logger   Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(repo RepositoryManager, policy Policy) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:     repo,
		policy:   normalizePolicy(policy),
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit profile events.
func (h *UpdateProfileHandler) WithActivitySink(sink ActivitySink) *UpdateProfileHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during profile update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	resp := &UpdateProfileResponse{}

	if event.PrincipalID == "" {
		resp.Step = ProfileLoginRequired
		h.respond(event, resp)
		return nil
	}

	// A missing record id means the payload was tampered with in an attempt
	// to create or rename accounts; treat it like an expired session.
	if event.Model.ID == uuid.Nil {
		resp.Step = ProfileLoginRequired
		h.respond(event, resp)
		return nil
	}

	if event.Model.ID.String() != event.PrincipalID {
		h.logger.Warn("cross-account profile write rejected",
			"principal_id", event.PrincipalID,
			"target_id", event.Model.ID.String(),
		)
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventProfileDenied,
			Actor:     ActorRef{ID: event.PrincipalID, Type: "user"},
			UserID:    event.Model.ID.String(),
			Metadata: map[string]any{
				"principal_id": event.PrincipalID,
			},
		})
		return ErrProfileOwnership
	}

	if h.policy.IsDemoSite() {
		return ErrDemoLock
	}

	if err := event.Model.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// The two sub-operations run independently so a failed field update does
	// not suppress the password change, and vice versa.
	resp.Step = ProfileSaved
	resp.User = h.updateFields(ctx, event, resp)
	if event.Model.Password != "" {
		h.changePassword(ctx, event, resp)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		Actor:     ActorRef{ID: event.PrincipalID, Type: "user"},
		UserID:    event.PrincipalID,
		Metadata: map[string]any{
			"profile_updated":  resp.ProfileUpdated,
			"password_updated": resp.PasswordUpdated,
		},
	})

	h.respond(event, resp)
	return nil
}

func (h *UpdateProfileHandler) updateFields(ctx context.Context, event UpdateProfileMessage, resp *UpdateProfileResponse) *User {
	user, err := h.repo.Users().GetByID(ctx, event.Model.ID)
	if err != nil {
		h.logger.Error("profile update lookup failed", "error", err)
		resp.ProfileError = goerrors.New("could not update profile", goerrors.CategoryInternal)
		return nil
	}

	user.Email = event.Model.Email
	if event.Model.Username != "" {
		user.Username = event.Model.Username
	}
	user.FirstName = event.Model.FirstName
	user.LastName = event.Model.LastName

	updated, err := h.repo.Users().Update(ctx, user)
	if err != nil {
		// likely an email/username collision; report a generic, field-level
		// failure without echoing driver internals
		h.logger.Error("profile update failed", "error", err)
		resp.ProfileError = goerrors.New("could not update profile", goerrors.CategoryConflict).
			WithMetadata(map[string]any{"field": "email"})
		return user
	}

	resp.ProfileUpdated = true
	return updated
}

func (h *UpdateProfileHandler) changePassword(ctx context.Context, event UpdateProfileMessage, resp *UpdateProfileResponse) {
	hash, err := HashPassword(event.Model.Password)
	if err != nil {
		resp.PasswordError = goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		return
	}

	if err := h.repo.Users().ChangePassword(ctx, event.Model.ID, hash); err != nil {
		h.logger.Error("profile password change failed", "error", err)
		resp.PasswordError = goerrors.New("could not change password", goerrors.CategoryInternal)
		return
	}

	resp.PasswordUpdated = true
}

func (h *UpdateProfileHandler) respond(event UpdateProfileMessage, resp *UpdateProfileResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return goerrors.New("values must match", goerrors.CategoryValidation)
		}
		return nil
	}
}
