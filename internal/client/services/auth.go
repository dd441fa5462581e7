// Package services contains application services for the Spotlight client:
// the session store (AuthService), the talent directory store
// (TalentService) and profile editing (ProfileEditor).
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/normalize"
	"github.com/dmitrijs2005/spotlight/internal/client/repositories/session"
	"github.com/dmitrijs2005/spotlight/internal/client/store"
	"github.com/dmitrijs2005/spotlight/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// AuthService owns the session: the current user and their bearer token.
//
// Contract:
//   - Login, Register, VerifyOTP: on success replace the session and persist
//     it; on failure return *client.APIError and leave the session unchanged.
//   - Register returns ErrVerificationRequired when the backend answers
//     without a token; VerifyOTP then completes the sign-up.
//   - Logout clears the session and durable storage. It makes no network
//     call, is idempotent and never fails.
//   - Restore rehydrates the session from durable storage.
//
// User and token are always set and cleared together. Identical concurrent
// calls share one request.
type AuthService interface {
	Login(ctx context.Context, email, password string) (models.Session, error)
	Register(ctx context.Context, fullName, email, password string) (models.Session, error)
	VerifyOTP(ctx context.Context, code string) (models.Session, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	CompleteExternalSignIn(ctx context.Context, id models.ExternalIdentity) error
	Logout(ctx context.Context)
	Restore(ctx context.Context) (models.Session, error)

	Session() models.Session
	PendingEmail() string
	ExpiresAt() (time.Time, bool)
	Subscribe(fn func(models.Session)) func()
}

type authService struct {
	client  client.Client
	storage session.Storage
	log     logging.Logger

	state *store.Store[models.Session]
	sf    singleflight.Group

	mu      sync.Mutex
	pending string
}

// NewAuthService constructs an AuthService bound to the given API client and
// durable storage. The session starts empty; call Restore to rehydrate it.
func NewAuthService(c client.Client, storage session.Storage, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &authService{
		client:  c,
		storage: storage,
		log:     log.With("service", "auth"),
		state:   store.New(models.Session{}),
	}
}

func (a *authService) Session() models.Session {
	return a.state.Get()
}

func (a *authService) Subscribe(fn func(models.Session)) func() {
	return a.state.Subscribe(fn)
}

// PendingEmail is the e-mail of a registration awaiting OTP verification.
func (a *authService) PendingEmail() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *authService) setPending(email string) {
	a.mu.Lock()
	a.pending = email
	a.mu.Unlock()
}

func (a *authService) Login(ctx context.Context, email, password string) (models.Session, error) {
	return a.shared("login\x00"+email+"\x00"+password, func() (models.Session, error) {
		res, err := a.client.Login(ctx, email, password)
		if err != nil {
			return models.Session{}, err
		}
		return a.commit(ctx, "login", res, "Login failed")
	})
}

func (a *authService) Register(ctx context.Context, fullName, email, password string) (models.Session, error) {
	return a.shared("register\x00"+fullName+"\x00"+email+"\x00"+password, func() (models.Session, error) {
		res, err := a.client.Register(ctx, fullName, email, password)
		if err != nil {
			return models.Session{}, err
		}
		if res.Token == "" {
			a.setPending(email)
			a.log.Info(ctx, "registration awaits verification", "email", email)
			return a.state.Get(), ErrVerificationRequired
		}
		return a.commit(ctx, "register", res, "Registration failed")
	})
}

func (a *authService) VerifyOTP(ctx context.Context, code string) (models.Session, error) {
	return a.shared("verify\x00"+code, func() (models.Session, error) {
		res, err := a.client.VerifyOTP(ctx, code)
		if err != nil {
			return models.Session{}, err
		}
		s, err := a.commit(ctx, "verify otp", res, "OTP verification failed")
		if err == nil {
			a.setPending("")
		}
		return s, err
	})
}

// ResendOTP falls back to the pending registration's e-mail when email is
// blank.
func (a *authService) ResendOTP(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		email = a.PendingEmail()
	}
	return a.client.ResendOTP(ctx, email)
}

func (a *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return a.client.ForgotPassword(ctx, email)
}

func (a *authService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return a.client.ResetPassword(ctx, token, newPassword)
}

func (a *authService) CompleteExternalSignIn(ctx context.Context, id models.ExternalIdentity) error {
	if err := a.client.SaveIdentity(ctx, id); err != nil {
		a.log.Warn(ctx, "failed to persist external identity", "email", id.Email, "err", err)
		return err
	}
	return nil
}

func (a *authService) Logout(ctx context.Context) {
	a.state.Update(func(cur models.Session) (models.Session, bool) {
		return models.Session{}, cur != (models.Session{})
	})
	if err := a.storage.Clear(ctx); err != nil {
		a.log.Error(ctx, "failed to clear persisted session", "err", err)
	}
	a.log.Debug(ctx, "logged out")
}

func (a *authService) Restore(ctx context.Context) (models.Session, error) {
	s, err := a.storage.Load(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to restore session", "err", err)
		return a.state.Get(), err
	}
	a.state.Set(s)
	return s, nil
}

// ExpiresAt reports the expiry claim of the current token. The signature is
// not verified; the backend stays the authority on validity.
func (a *authService) ExpiresAt() (time.Time, bool) {
	tok := a.state.Get().Token
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// commit installs the session carried by res. A response without both a
// token and a user is treated as malformed and leaves the session as is.
func (a *authService) commit(ctx context.Context, op string, res models.AuthResult, fallback string) (models.Session, error) {
	if res.Token == "" || res.User == nil {
		return models.Session{}, &client.APIError{Op: op, Message: fallback, Err: normalize.ErrMalformedResponse}
	}

	s := models.Session{User: res.User, Token: res.Token}
	a.state.Set(s)
	if err := a.storage.Save(ctx, s); err != nil {
		a.log.Error(ctx, "failed to persist session", "op", op, "err", err)
	}
	a.log.Debug(ctx, "session updated", "op", op, "user_id", s.User.ID)
	return s, nil
}

func (a *authService) shared(key string, fn func() (models.Session, error)) (models.Session, error) {
	v, err, _ := a.sf.Do(key, func() (any, error) {
		return fn()
	})
	s, _ := v.(models.Session)
	return s, err
}
