package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	identity "github.com/millbrook/go-identity"
)

func TestLoginRequestPayload(t *testing.T) {
	payload := identity.LoginRequest{
		Identifier: "test@example.com",
		Password:   "password123",
		RememberMe: true,
	}

	assert.Equal(t, "test@example.com", payload.GetIdentifier())
	assert.Equal(t, "password123", payload.GetPassword())
	assert.True(t, payload.GetExtendedSession())
	assert.NoError(t, payload.Validate())

	assert.Error(t, identity.LoginRequest{}.Validate())
	assert.Error(t, identity.LoginRequest{Identifier: "test@example.com"}.Validate())
}

func TestSignupCreatePayloadValidate(t *testing.T) {
	valid := identity.SignupCreatePayload{
		Email:           "test@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "different123"
	assert.Error(t, mismatch.Validate())

	short := valid
	short.Password = "short"
	short.ConfirmPassword = "short"
	assert.Error(t, short.Validate())

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.Error(t, badEmail.Validate())
}

func TestPasswordResetPayloads(t *testing.T) {
	request := identity.PasswordResetRequestPayload{
		Email: "test@example.com",
		Stage: identity.ResetInit,
	}
	assert.NoError(t, request.Validate())
	assert.Error(t, identity.PasswordResetRequestPayload{Email: "test@example.com", Stage: "bogus"}.Validate())

	verify := identity.PasswordResetVerifyPayload{
		Stage:           identity.ChangingPassword,
		Password:        "newPassword123",
		ConfirmPassword: "newPassword123",
	}
	assert.NoError(t, verify.Validate())

	verify.ConfirmPassword = "different123"
	assert.Error(t, verify.Validate())
}

func TestValidateStringEquals(t *testing.T) {
	rule := identity.ValidateStringEquals("expected")

	assert.NoError(t, rule("expected"))
	assert.Error(t, rule("other"))
	assert.Error(t, rule(42))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	err := identity.SignupCreatePayload{Email: "bad"}.Validate()
	out := identity.FormatValidationErrorToMap(err)

	assert.NotEmpty(t, out)
	assert.Contains(t, out, "email")

	assert.Empty(t, identity.FormatValidationErrorToMap(nil))
}
