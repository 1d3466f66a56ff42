package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ResendConfirmationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *ResendConfirmationResponse)
}

func (e ResendConfirmationMessage) Type() string { return "identity.resend_confirmation" }

type ResendConfirmationResponse struct {
	Step      SignupStep
	User      *User
	EmailSent bool
	Success   bool
}

// ResendConfirmationHandler re-sends the signup confirmation for an account
// that never activated. The resend is idempotent: it always reuses the
// activation key minted at signup and never regenerates it.
type ResendConfirmationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

// NewResendConfirmationHandler creates a handler with sane defaults.
func NewResendConfirmationHandler(repo RepositoryManager) *ResendConfirmationHandler {
	return &ResendConfirmationHandler{
		repo:   repo,
		mailer: noopMailer{},
		logger: defLogger{},
	}
}

// WithMailer sets the mail collaborator.
func (h *ResendConfirmationHandler) WithMailer(m Mailer) *ResendConfirmationHandler {
	h.mailer = normalizeMailer(m)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ResendConfirmationHandler) WithLogger(logger Logger) *ResendConfirmationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendConfirmationHandler) Execute(ctx context.Context, event ResendConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendConfirmationHandler) execute(ctx context.Context, event ResendConfirmationMessage) error {
	resp := &ResendConfirmationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// something went wrong with the original signup, restart it
			resp.Step = SignupRestart
			h.respond(event, resp)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation resend")
	}

	if user.IsActivated {
		resp.Step = SignupAlreadyActivated
		resp.User = user
		h.respond(event, resp)
		return nil
	}

	if err := h.mailer.SendActivation(ctx, user); err != nil {
		h.logger.Warn("confirmation resend failed", "error", err, "user_id", user.ID.String())
		resp.EmailSent = false
	} else {
		resp.EmailSent = true
	}

	resp.Step = SignupComplete
	resp.User = user
	resp.Success = true
	h.respond(event, resp)

	return nil
}

func (h *ResendConfirmationHandler) respond(event ResendConfirmationMessage, resp *ResendConfirmationResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
