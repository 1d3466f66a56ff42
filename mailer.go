package identity

import (
	"context"
	"fmt"
)

// LogMailer writes notification links to stdout. It is the development
// stand-in for a real transport; hosts wire their own Mailer.
type LogMailer struct{}

func (LogMailer) SendActivation(ctx context.Context, user *User) error {
	printEmailNotification(user.Email, "/user/activate/"+user.ActivationKey)
	return nil
}

func (LogMailer) SendPasswordReset(ctx context.Context, user *User) error {
	printEmailNotification(user.Email, "/password-reset/"+user.PasswordResetKey)
	return nil
}

func printEmailNotification(email, link string) {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf("link: %s\n", link)
}

type noopMailer struct{}

func (noopMailer) SendActivation(context.Context, *User) error    { return nil }
func (noopMailer) SendPasswordReset(context.Context, *User) error { return nil }

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}
