/*
Package account implements the login, registration and logout flows.

Each flow validates its form before touching the network, calls the backend, and on success
updates the session store and names the route to show next. Failures come back as
*errs.CustomError values whose Message is ready to be shown in a notification.
*/
package account

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"whatsgram/internal/app/api"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/session"
	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
)

// AuthAPI is the part of the backend the account flows use.
type AuthAPI interface {
	Register(ctx context.Context, in api.RegisterInput) error
	Login(ctx context.Context, in api.LoginInput) (*session.Session, error)
	Logout(ctx context.Context) error
}

// SessionSetter is the single mutation path of the session store.
type SessionSetter interface {
	Set(sess *session.Session) error
}

// Result is the outcome of a successful flow.
type Result struct {
	// Notice is the transient notification to show.
	Notice string

	// Next is the route to navigate to.
	Next gate.Route
}

// LoginForm holds the login fields.
type LoginForm struct {
	Email    string
	Password string
}

// RegisterForm holds the registration fields.
type RegisterForm struct {
	Email           string
	Username        string
	Fullname        string
	Password        string
	ConfirmPassword string
	Gender          string
}

// Genders lists the accepted gender values.
var Genders = []string{"male", "female"}

// Service runs the account flows.
type Service struct {
	api      AuthAPI
	sessions SessionSetter
	logger   zerolog.Logger
}

// NewService returns a Service using backend and sessions.
func NewService(backend AuthAPI, sessions SessionSetter) *Service {
	return &Service{
		api:      backend,
		sessions: sessions,
		logger:   logx.Component("account"),
	}
}

// blank reports whether any of values is empty after trimming.
func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Login submits credentials. On success the session is persisted and set.
// A backend rejection comes back with its message unchanged and nothing persisted.
func (s *Service) Login(ctx context.Context, form LoginForm) (Result, error) {
	if blank(form.Email, form.Password) {
		return Result{}, errs.NewError(errs.ErrRequiredFields)
	}

	sess, err := s.api.Login(ctx, api.LoginInput{
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})
	if err != nil {
		s.logger.Info().Err(err).Str("email", form.Email).Msg("Login failed")
		return Result{}, surface(err)
	}

	if err := s.sessions.Set(sess); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store session after login")
		return Result{}, errs.NewError(errs.ErrUnknown, err)
	}

	return Result{Notice: "Login successful!", Next: gate.RouteHome}, nil
}

// Register validates the form and creates an account. A password mismatch is reported
// without any network call.
func (s *Service) Register(ctx context.Context, form RegisterForm) (Result, error) {
	if blank(form.Email, form.Username, form.Fullname, form.Password, form.ConfirmPassword, form.Gender) {
		return Result{}, errs.NewError(errs.ErrRequiredFields)
	}

	if form.Password != form.ConfirmPassword {
		return Result{}, errs.NewError(errs.ErrPasswordMismatch)
	}

	err := s.api.Register(ctx, api.RegisterInput{
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
		Username: strings.TrimSpace(form.Username),
		Fullname: strings.TrimSpace(form.Fullname),
		Gender:   strings.ToLower(strings.TrimSpace(form.Gender)),
	})
	if err != nil {
		s.logger.Info().Err(err).Str("username", form.Username).Msg("Registration failed")
		return Result{}, surface(err)
	}

	return Result{Notice: "Registration successful!", Next: gate.RouteLogin}, nil
}

// Logout ends the backend session and then clears the local one, wiping durable storage.
// When the backend call fails the local session is kept.
func (s *Service) Logout(ctx context.Context) (Result, error) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Logout request failed, keeping session")
		return Result{}, surface(err)
	}

	if err := s.sessions.Set(nil); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session after logout")
		return Result{}, errs.NewError(errs.ErrUnknown, err)
	}

	return Result{Notice: "Logged out.", Next: gate.RouteLogin}, nil
}

// surface maps any error to one with a user-facing message.
func surface(err error) error {
	if customErr, ok := errs.As(err); ok {
		return customErr
	}
	return errs.NewError(errs.ErrRequestFailed)
}
