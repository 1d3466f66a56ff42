package identity

import "context"

// CaptchaVerifierFunc adapts a function to the CaptchaVerifier interface.
type CaptchaVerifierFunc func(ctx context.Context, token string) (bool, error)

func (f CaptchaVerifierFunc) Verify(ctx context.Context, token string) (bool, error) {
	if f == nil {
		return true, nil
	}
	return f(ctx, token)
}

// noopCaptchaVerifier accepts everything; used when a deployment has no
// captcha configured.
type noopCaptchaVerifier struct{}

func (noopCaptchaVerifier) Verify(context.Context, string) (bool, error) {
	return true, nil
}

func normalizeCaptchaVerifier(v CaptchaVerifier) CaptchaVerifier {
	if v == nil {
		return noopCaptchaVerifier{}
	}
	return v
}
