package identity

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
)

// HTTPAuthenticator is the surface the controller needs from the route
// authenticator: issue and tear down session cookies, and resolve redirects.
type HTTPAuthenticator interface {
	Login(ctx router.Context, payload LoginPayload) error
	Logout(ctx router.Context)
	SessionFromRequest(ctx router.Context) (Session, error)
	GetRedirect(ctx router.Context, def ...string) string
	SetRedirect(ctx router.Context)
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// GetRouterSession retrieves the session the protected-route middleware left
// in the request locals.
func GetRouterSession(c router.Context, key string) (Session, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := cookie.(Session)
	if session == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return session, nil
}

// RegisterIdentityRoutes mounts the account lifecycle endpoints: login,
// logout, signup, activation, confirmation resend, password reset, and the
// owner-only profile pages.
func RegisterIdentityRoutes[T any](app router.Router[T], opts ...IdentityControllerOption) {

	controller := NewIdentityController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Signup, controller.SignupShow).
		SetName("signup.get")
	app.Post(controller.Routes.Signup, controller.SignupCreate).
		SetName("signup.post")

	app.Get(fmt.Sprintf("%s/:key", controller.Routes.Activate), controller.Activate).
		SetName("activate.get")

	app.Get(controller.Routes.ResendConfirmation, controller.ResendConfirmationShow).
		SetName("resend-confirmation.get")
	app.Post(controller.Routes.ResendConfirmation, controller.ResendConfirmation).
		SetName("resend-confirmation.post")

	app.Get(controller.Routes.PasswordReset, controller.PasswordResetGet).
		SetName("pwd-reset.get")
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")

	app.Get(fmt.Sprintf("%s/:key", controller.Routes.PasswordReset), controller.PasswordResetForm).
		SetName("pwd-reset-do.get")
	app.Post(fmt.Sprintf("%s/:key", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("pwd-reset-do.post")

	protected := controller.Auther.ProtectedRoute(controller.Config, controller.AuthErrorHandler)

	app.Get(controller.Routes.Profile, protected(controller.ProfileShow)).
		SetName("profile.get")
	app.Post(controller.Routes.Profile, protected(controller.ProfileSave)).
		SetName("profile.post")
}

type IdentityControllerRoutes struct {
	Login              string
	Logout             string
	Signup             string
	Activate           string
	ResendConfirmation string
	PasswordReset      string
	Profile            string
}

type IdentityControllerViews struct {
	Login         string
	Logout        string
	Signup        string
	Activated     string
	PasswordReset string
	Profile       string
}

type IdentityController struct {
	Debug            bool
	Logger           Logger
	Repo             RepositoryManager
	Policy           Policy
	Mailer           Mailer
	Captcha          CaptchaVerifier
	Keys             KeyGenerator
	Activity         ActivitySink
	Config           Config
	Routes           *IdentityControllerRoutes
	Views            *IdentityControllerViews
	Auther           HTTPAuthenticator
	ErrorHandler     router.ErrorHandler
	AuthErrorHandler func(router.Context, error) error
}

type IdentityControllerOption func(*IdentityController) *IdentityController

func NewIdentityController(opts ...IdentityControllerOption) *IdentityController {
	c := &IdentityController{
		Logger:       defLogger{},
		ErrorHandler: defaultControllerErrHandler,
		Routes: &IdentityControllerRoutes{
			Login:              "/login",
			Logout:             "/logout",
			Signup:             "/signup",
			Activate:           "/user/activate",
			ResendConfirmation: "/user/resendconfirmation",
			PasswordReset:      "/password-reset",
			Profile:            "/profile",
		},
		Views: &IdentityControllerViews{
			Login:         "login",
			Logout:        "logout",
			Signup:        "signup",
			Activated:     "activated",
			PasswordReset: "password_reset",
			Profile:       "profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in identity controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in identity controller...")
	}

	if c.Config == nil {
		panic("Missing Config in identity controller...")
	}

	if c.Policy == nil {
		c.Policy = normalizePolicy(nil)
	}

	if c.AuthErrorHandler == nil {
		c.AuthErrorHandler = func(ctx router.Context, err error) error {
			return ctx.Redirect(c.Routes.Login, router.StatusSeeOther)
		}
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Config = cfg
		return c
	}
}

func WithControllerPolicy(policy Policy) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Policy = policy
		return c
	}
}

func WithControllerMailer(mailer Mailer) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerCaptcha(captcha CaptchaVerifier) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Captcha = captcha
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Activity = sink
		return c
	}
}

func (a *IdentityController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the remember-me box was ticked
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *IdentityController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= IDENTITY LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	// every failure renders the same message so callers cannot probe which
	// accounts exist or whether the password was close
	if err := a.Auther.Login(ctx, payload); err != nil {
		errs["authentication"] = "Authentication Error"
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors":  errs,
			"payload": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, "/")

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *IdentityController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *IdentityController) SignupShow(ctx router.Context) error {
	if !a.Policy.AllowUserSignup() || a.Policy.UseExternalAuth() {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Signup, router.ViewContext{
		"errors": map[string]string{},
		"record": SignupMessage{},
	})
}

// SignupCreatePayload is the form payload
type SignupCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	CaptchaToken    string `form:"captcha_token" json:"captcha_token"`
}

// Validate will validate the payload
func (r SignupCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *IdentityController) SignupCreate(ctx router.Context) error {
	payload := new(SignupCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{}
		errs["form"] = "Failed to parse form"
		a.Logger.Error("signup parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(router.StatusBadRequest).Render(a.Views.Signup, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errs := FormatValidationErrorToMap(err)
		a.Logger.Error("signup validate payload: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Signup, router.ViewContext{
			"record":     payload,
			"validation": errs,
		})
	}

	var res *SignupResponse
	req := SignupMessage{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Username:     payload.Username,
		Email:        payload.Email,
		Password:     payload.Password,
		CaptchaToken: payload.CaptchaToken,
		OnResponse: func(resp *SignupResponse) {
			res = resp
		},
	}

	signup := NewSignupHandler(a.Repo, a.Policy).
		WithMailer(a.Mailer).
		WithCaptchaVerifier(a.Captcha).
		WithKeyGenerator(a.Keys).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := signup.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("signup error: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.Signup, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	if res != nil && res.Step == SignupClosed {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created, check your email to activate it",
	}).Redirect(a.Routes.Login, router.StatusSeeOther)
}

func (a *IdentityController) Activate(ctx router.Context) error {
	key := ctx.Param("key", "")

	var res *ActivateAccountResponse
	req := ActivateAccountMessage{
		Key: key,
		OnResponse: func(resp *ActivateAccountResponse) {
			res = resp
		},
	}

	activate := NewActivateAccountHandler(a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := activate.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("activation error: ", "error", err)
		return ctx.Render(a.Views.Activated, router.ViewContext{
			"activated": false,
			"errors":    []string{"Invalid or expired activation link"},
		})
	}

	return ctx.Render(a.Views.Activated, router.ViewContext{
		"activated": res != nil && res.Activated,
		"errors":    nil,
	})
}

func (a *IdentityController) ResendConfirmationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Signup, router.ViewContext{
		"resend": true,
		"errors": nil,
	})
}

// ResendConfirmationPayload holds the email to resend an activation link to
type ResendConfirmationPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ResendConfirmationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *IdentityController) ResendConfirmation(ctx router.Context) error {
	payload := new(ResendConfirmationPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		errs := FormatValidationErrorToMap(err)
		return ctx.Render(a.Views.Signup, router.ViewContext{
			"resend":     true,
			"validation": errs,
		})
	}

	var res *ResendConfirmationResponse
	req := ResendConfirmationMessage{
		Email: payload.Email,
		OnResponse: func(resp *ResendConfirmationResponse) {
			res = resp
		},
	}

	resend := NewResendConfirmationHandler(a.Repo).
		WithMailer(a.Mailer).
		WithLogger(a.Logger)

	if err := resend.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("resend confirmation error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Unable to resend the confirmation email",
		}).Render(a.Views.Signup, router.ViewContext{
			"resend": true,
			"errors": []string{"Unable to resend the confirmation email"},
		})
	}

	if res != nil && res.Step == SignupAlreadyActivated {
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Account is already activated, you can sign in",
		}).Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Confirmation email sent",
	}).Redirect(a.Routes.Login, router.StatusSeeOther)
}

const (
	stageKey = "stage"
	keyKey   = "key"
	emailKey = "email"
)

// password reset stages rendered by the views
const (
	ResetInit        = "reset_init"
	ChangingPassword = "changing_password"
	ChangeFinalized  = "change_finalized"
	ResetUnknown     = "reset_unknown"
)

func (a *IdentityController) PasswordResetGet(ctx router.Context) error {
	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			stageKey: ResetInit,
		},
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
	Stage string `form:"stage" json:"stage"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Stage,
			validation.Required,
			validation.In(
				ResetInit,
			),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *IdentityController) PasswordResetPost(ctx router.Context) error {
	errs := map[string]string{}
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		errs["form"] = "Failed to parse form"
		a.Logger.Error("password reset parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(router.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload: ", "error", err)
		verrs := FormatValidationErrorToMap(err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": verrs,
		})
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Policy).
		WithMailer(a.Mailer).
		WithKeyGenerator(a.Keys).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error requesting password reset",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("================")
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password reset email sent",
	}).Redirect("/", router.StatusSeeOther)
}

func (a *IdentityController) PasswordResetForm(ctx router.Context) error {
	key := ctx.Param("key", "")

	currentStage := ChangingPassword
	if key == "" {
		currentStage = ResetUnknown
	}

	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": map[string]string{},
		"reset": map[string]string{
			keyKey:   key,
			stageKey: currentStage,
		},
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Stage           string `form:"stage" json:"stage"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Stage,
			validation.Required,
			validation.In(
				ChangingPassword,
			),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *IdentityController) PasswordResetExecute(ctx router.Context) error {
	key := ctx.Param("key")

	errs := map[string]string{}
	payload := new(PasswordResetVerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		errs["form"] = "Failed to parse form"
		a.Logger.Error("password reset parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(router.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload: ", "error", err)
		errs = FormatValidationErrorToMap(err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": errs,
		})
	}

	input := FinalizePasswordResetMessage{
		Key:             key,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		errs["validation"] = "The reset link is invalid or was already used"
		return ctx.Render(a.Views.PasswordReset, router.ViewContext{
			"errors": errs,
			"reset": router.ViewContext{
				stageKey: ChangingPassword,
				keyKey:   key,
				emailKey: "",
			},
		})
	}

	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": errs,
		"reset": router.ViewContext{
			stageKey: ChangeFinalized,
			keyKey:   key,
		},
	})
}

func (a *IdentityController) ProfileShow(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	var res *GetProfileResponse
	req := GetProfileMessage{
		PrincipalID: session.GetUserID(),
		OnResponse: func(resp *GetProfileResponse) {
			res = resp
		},
	}

	getProfile := NewGetProfileHandler(a.Repo).WithLogger(a.Logger)

	if err := getProfile.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("profile load error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if res.Step == ProfileLoginRequired {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Profile, router.ViewContext{
		"errors": map[string]string{},
		"record": res.User,
	})
}

// ProfileSavePayload is the form payload for profile updates
type ProfileSavePayload struct {
	ID              string `form:"id" json:"id"`
	Email           string `form:"email" json:"email"`
	Username        string `form:"username" json:"username"`
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (a *IdentityController) ProfileSave(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	payload := new(ProfileSavePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(router.StatusBadRequest).Render(a.Views.Profile, router.ViewContext{
			"record": payload,
		})
	}

	recordID, err := uuid.Parse(payload.ID)
	if err != nil {
		recordID = uuid.Nil
	}

	var res *UpdateProfileResponse
	req := UpdateProfileMessage{
		PrincipalID: session.GetUserID(),
		Model: ProfileModel{
			ID:              recordID,
			Email:           payload.Email,
			Username:        payload.Username,
			FirstName:       payload.FirstName,
			LastName:        payload.LastName,
			Password:        payload.Password,
			ConfirmPassword: payload.ConfirmPassword,
		},
		OnResponse: func(resp *UpdateProfileResponse) {
			res = resp
		},
	}

	updateProfile := NewUpdateProfileHandler(a.Repo, a.Policy).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := updateProfile.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("profile update error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if res.Step == ProfileLoginRequired {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	errs := map[string]string{}
	if res.ProfileError != nil {
		errs["profile"] = res.ProfileError.Error()
	}
	if res.PasswordError != nil {
		errs["password"] = res.PasswordError.Error()
	}

	if len(errs) > 0 {
		return ctx.Render(a.Views.Profile, router.ViewContext{
			"errors": errs,
			"record": res.User,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Profile saved",
	}).Redirect(a.Routes.Profile, router.StatusSeeOther)
}

// FormatValidationErrorToMap flattens ozzo field errors into a simple map the
// views can index by field name.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if ok := errors.As(err, &verrs); !ok {
		out["form"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		out[strings.ToLower(field)] = ferr.Error()
	}
	return out
}

func defaultControllerErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
