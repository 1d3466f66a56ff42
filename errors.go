package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeAccountInactive   = "ACCOUNT_NOT_ACTIVATED"
	TextCodeTooManyAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeCaptchaRejected   = "CAPTCHA_REJECTED"
	TextCodeEmailNotFound     = "EMAIL_NOT_FOUND"
	TextCodeKeyInvalid        = "KEY_INVALID_OR_CONSUMED"
	TextCodeCrossAccountWrite = "CROSS_ACCOUNT_WRITE"
	TextCodeDemoLock          = "DEMO_SITE_LOCKED"
	TextCodeSessionNotFound   = "SESSION_NOT_FOUND"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
)

// ErrInvalidCredentials is the single, undifferentiated login failure. It is
// returned for unknown identifiers AND for wrong passwords so a caller can
// never use the error to enumerate accounts.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotActivated blocks login until the activation key is redeemed.
var ErrAccountNotActivated = goerrors.New("account has not been activated", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while the login cooldown is in effect.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrCaptchaRejected is a field-scoped validation failure; nothing is written
// to the directory when it is returned.
var ErrCaptchaRejected = goerrors.New("captcha verification failed", goerrors.CategoryValidation).
	WithTextCode(TextCodeCaptchaRejected).
	WithCode(goerrors.CodeBadRequest).
	WithMetadata(map[string]any{"field": "captcha"})

// ErrEmailNotFound is the reset-request failure for an unknown email. This
// deliberately discloses non-existence; see DESIGN.md for the decision.
var ErrEmailNotFound = goerrors.New("no account matches that email address", goerrors.CategoryNotFound).
	WithTextCode(TextCodeEmailNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrActivationKeyInvalid covers unknown and already-consumed activation keys.
var ErrActivationKeyInvalid = goerrors.New("invalid or already used activation key", goerrors.CategoryNotFound).
	WithTextCode(TextCodeKeyInvalid).
	WithCode(goerrors.CodeNotFound)

// ErrResetKeyInvalid covers unknown and already-redeemed reset keys. Distinct
// from validation failures so callers can render the right recovery path.
var ErrResetKeyInvalid = goerrors.New("invalid or already used password reset key", goerrors.CategoryNotFound).
	WithTextCode(TextCodeKeyInvalid).
	WithCode(goerrors.CodeNotFound)

// ErrProfileOwnership is the cross-account write rejection. It is always
// recorded through the ActivitySink and must never be downgraded to a
// validation failure.
var ErrProfileOwnership = goerrors.New("cannot modify the profile of another user", goerrors.CategoryAuthz).
	WithTextCode(TextCodeCrossAccountWrite).
	WithCode(goerrors.CodeForbidden)

// ErrDemoLock rejects credential mutations on demo deployments.
var ErrDemoLock = goerrors.New("credential changes are disabled on this deployment", goerrors.CategoryConflict).
	WithTextCode(TextCodeDemoLock).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString guards hashing and key redemption against empty input.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToFindSession is returned when a request carries no session cookie.
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession means the session token could not be decoded.
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for session tokens past their expiry.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens that fail to parse.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is returned when a session maps to no directory record.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
