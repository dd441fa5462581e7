package cli

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/services"
)

func (a *App) Register(ctx context.Context) error {
	fullName, err := GetSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}

	s, err := a.authService.Register(ctx, fullName, email, password)
	switch {
	case errors.Is(err, services.ErrVerificationRequired):
		a.printf("A verification code was sent to %s. Run 'verify' to finish.\n", email)
		return nil
	case err != nil:
		return a.fail(err, "Registration failed")
	}
	a.printf("Welcome, %s!\n", s.User.FullName)
	return nil
}

// Verify exchanges the OTP from args, or prompted, for a session.
func (a *App) Verify(ctx context.Context, args []string) error {
	code, err := a.argOrPrompt(args, "Enter verification code")
	if err != nil {
		return err
	}
	s, err := a.authService.VerifyOTP(ctx, code)
	if err != nil {
		return a.fail(err, "OTP verification failed")
	}
	a.printf("Verified. Welcome, %s!\n", s.User.FullName)
	return nil
}

// Resend asks for a new OTP. Without an argument the e-mail of the pending
// registration is used.
func (a *App) Resend(ctx context.Context, args []string) error {
	email := ""
	if len(args) > 0 {
		email = args[0]
	}
	if email == "" && a.authService.PendingEmail() == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	msg, err := a.authService.ResendOTP(ctx, email)
	if err != nil {
		return a.fail(err, "Server error")
	}
	a.println(msg)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}

	s, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return a.fail(err, "Login failed")
	}
	a.printf("Welcome, %s!\n", s.User.FullName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout(ctx)
	a.println("Logged out")
	return nil
}

func (a *App) Forgot(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter email")
	if err != nil {
		return err
	}
	msg, err := a.authService.ForgotPassword(ctx, email)
	if err != nil {
		return a.fail(err, "Server error")
	}
	a.println(msg)
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	token, err := GetSimpleText(a.reader, "Enter reset token", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Enter new password", a.out)
	if err != nil {
		return err
	}
	msg, err := a.authService.ResetPassword(ctx, token, password)
	if err != nil {
		return a.fail(err, "Server error")
	}
	a.println(msg)
	return nil
}

// WhoAmI prints the local session. With --remote it also asks the backend
// who the session belongs to.
func (a *App) WhoAmI(ctx context.Context, args []string) error {
	s := a.authService.Session()
	if !s.IsAuthenticated() {
		a.println("Not logged in")
		return nil
	}
	a.printf("%s <%s> id=%s\n", s.User.FullName, s.User.Email, s.User.ID)
	if exp, ok := a.authService.ExpiresAt(); ok {
		a.printf("Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	if !slices.Contains(args, "--remote") {
		return nil
	}

	me, err := a.api.Me(ctx)
	if err != nil {
		return a.fail(err, "Failed to fetch profile")
	}
	a.printf("Server: %s <%s> id=%s\n", me.FullName, me.Email, me.ID)
	if me.ID != s.User.ID {
		a.println("Warning: the server reports a different user for this session")
	}
	return nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}
