package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "identity.password_reset" }

// Validate will run validation rules
func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type InitializePasswordResetResponse struct {
	User      *User
	ResetKey  string
	EmailSent bool
	Success   bool
}

// InitializePasswordResetHandler starts a reset: it mints a fresh single-use
// key (superseding any outstanding one), commits it, and only then emails the
// reset link. An unknown email fails with ErrEmailNotFound; this keeps the
// legacy disclosure behavior, see DESIGN.md.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	policy   Policy
	mailer   Mailer
	keys     KeyGenerator
	activity ActivitySink
	logger   Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager, policy Policy) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		policy:   normalizePolicy(policy),
		mailer:   noopMailer{},
		keys:     NewKeyGenerator(),
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithMailer sets the mail collaborator.
func (h *InitializePasswordResetHandler) WithMailer(m Mailer) *InitializePasswordResetHandler {
	h.mailer = normalizeMailer(m)
	return h
}

// WithKeyGenerator overrides the reset key source.
func (h *InitializePasswordResetHandler) WithKeyGenerator(k KeyGenerator) *InitializePasswordResetHandler {
	h.keys = normalizeKeyGenerator(k)
	return h
}

// WithActivitySink sets the sink used to emit reset events.
func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if h.policy.IsDemoSite() {
		return ErrDemoLock
	}

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// resolve the account before opening the transaction; the lookup must
	// not hold the write transaction's connection, and the CAS in
	// SetResetKeyTx carries the consistency on its own
	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrEmailNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// a fresh key supersedes any outstanding request
		key := h.keys.NewKey()
		user, err = h.repo.Users().SetResetKeyTx(ctx, tx, user.ID, key)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password reset key")
		}

		resp.ResetKey = key
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	// key is durable here; the email send must not undo it
	if err := h.mailer.SendPasswordReset(ctx, user); err != nil {
		h.logger.Warn("password reset email failed", "error", err, "user_id", user.ID.String())
		resp.EmailSent = false
	} else {
		resp.EmailSent = true
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetRequest,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"email_sent": resp.EmailSent,
		},
	})

	resp.User = user
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
