package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
	OnResponse   func(resp *SignupResponse)
}

func (e SignupMessage) Type() string { return "identity.signup" }

// Validate will run validation rules
func (e SignupMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&e.Username, validation.Length(0, 100)),
		validation.Field(&e.FirstName, validation.Length(0, 200)),
		validation.Field(&e.LastName, validation.Length(0, 200)),
	)
}

type SignupResponse struct {
	Step          SignupStep
	User          *User
	ActivationKey string
	EmailSent     bool
	Success       bool
}

// SignupHandler creates unactivated accounts. The record and its activation
// key are committed before the confirmation email is attempted; a failed send
// leaves the record in place and is reported through EmailSent.
type SignupHandler struct {
	repo     RepositoryManager
	policy   Policy
	captcha  CaptchaVerifier
	mailer   Mailer
	keys     KeyGenerator
	activity ActivitySink
	logger   Logger
}

// NewSignupHandler creates a handler with sane defaults.
func NewSignupHandler(repo RepositoryManager, policy Policy) *SignupHandler {
	return &SignupHandler{
		repo:     repo,
		policy:   normalizePolicy(policy),
		captcha:  noopCaptchaVerifier{},
		mailer:   noopMailer{},
		keys:     NewKeyGenerator(),
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithCaptchaVerifier sets the captcha collaborator.
func (h *SignupHandler) WithCaptchaVerifier(v CaptchaVerifier) *SignupHandler {
	h.captcha = normalizeCaptchaVerifier(v)
	return h
}

// WithMailer sets the mail collaborator.
func (h *SignupHandler) WithMailer(m Mailer) *SignupHandler {
	h.mailer = normalizeMailer(m)
	return h
}

// WithKeyGenerator overrides the activation key source.
func (h *SignupHandler) WithKeyGenerator(k KeyGenerator) *SignupHandler {
	h.keys = normalizeKeyGenerator(k)
	return h
}

// WithActivitySink sets the sink used to emit signup events.
func (h *SignupHandler) WithActivitySink(sink ActivitySink) *SignupHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SignupHandler) WithLogger(logger Logger) *SignupHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	resp := &SignupResponse{}

	// Signup gated off is an expected flow, not an application error.
	if !h.policy.AllowUserSignup() || h.policy.UseExternalAuth() {
		resp.Step = SignupClosed
		h.respond(event, resp)
		return nil
	}

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup payload")
	}

	ok, err := h.captcha.Verify(ctx, event.CaptchaToken)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "captcha verification unavailable")
	}
	if !ok {
		return ErrCaptchaRejected
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Username = event.Username
		user.IsActivated = false
		user.ActivationKey = h.keys.NewKey()
		if id, err := hashid.NewUUID(event.Email); err == nil {
			user.ID = id
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	// The record is durable at this point; the email is best effort and the
	// caller can recover through ResendConfirmation.
	if err := h.mailer.SendActivation(ctx, user); err != nil {
		h.logger.Warn("signup confirmation email failed", "error", err, "user_id", user.ID.String())
		resp.EmailSent = false
	} else {
		resp.EmailSent = true
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventSignupComplete,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"email_sent": resp.EmailSent,
		},
	})

	resp.Step = SignupComplete
	resp.User = user
	resp.ActivationKey = user.ActivationKey
	resp.Success = true
	h.respond(event, resp)

	return nil
}

func (h *SignupHandler) respond(event SignupMessage, resp *SignupResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
