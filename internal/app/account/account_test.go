package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsgram/internal/app/api"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/storage"
	"whatsgram/internal/configs"
	"whatsgram/internal/pkg/errs"
)

type fakeAuth struct {
	registerCalls int
	loginCalls    int
	logoutCalls   int

	registerErr error
	loginSess   *session.Session
	loginErr    error
	logoutErr   error
}

func (f *fakeAuth) Register(ctx context.Context, in api.RegisterInput) error {
	f.registerCalls++
	return f.registerErr
}

func (f *fakeAuth) Login(ctx context.Context, in api.LoginInput) (*session.Session, error) {
	f.loginCalls++
	return f.loginSess, f.loginErr
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func newStore(t *testing.T) (*session.Store, storage.Local) {
	t.Helper()
	local, err := storage.NewLocalStorage(storage.ServiceConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	return session.NewStore(local), local
}

func validRegisterForm() RegisterForm {
	return RegisterForm{
		Email:           "ana@x.io",
		Username:        "ana",
		Fullname:        "Ana Diaz",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Gender:          "female",
	}
}

func TestRegisterPasswordMismatchNeverCallsNetwork(t *testing.T) {
	backend := &fakeAuth{}
	store, _ := newStore(t)
	svc := NewService(backend, store)

	form := validRegisterForm()
	form.ConfirmPassword = "different"

	_, err := svc.Register(context.Background(), form)

	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.ErrPasswordMismatch))
	assert.Equal(t, "Passwords do not match!", errs.UserMessage(err))
	assert.Zero(t, backend.registerCalls)
}

func TestRegisterRequiresEveryField(t *testing.T) {
	backend := &fakeAuth{}
	store, _ := newStore(t)
	svc := NewService(backend, store)

	form := validRegisterForm()
	form.Gender = ""

	_, err := svc.Register(context.Background(), form)
	assert.True(t, errs.HasCode(err, errs.ErrRequiredFields))
	assert.Zero(t, backend.registerCalls)
}

func TestRegisterSuccessGoesToLogin(t *testing.T) {
	backend := &fakeAuth{}
	store, _ := newStore(t)
	svc := NewService(backend, store)

	res, err := svc.Register(context.Background(), validRegisterForm())

	require.NoError(t, err)
	assert.Equal(t, gate.RouteLogin, res.Next)
	assert.Equal(t, "Registration successful!", res.Notice)
	assert.Nil(t, store.Current(), "registration does not sign in")
}

func TestRegisterSurfacesBackendMessage(t *testing.T) {
	backend := &fakeAuth{registerErr: errs.Rejected("Username already exists")}
	store, _ := newStore(t)

	_, err := NewService(backend, store).Register(context.Background(), validRegisterForm())
	assert.Equal(t, "Username already exists", errs.UserMessage(err))
}

func TestLoginRejectionShowsMessageAndPersistsNothing(t *testing.T) {
	backend := &fakeAuth{loginErr: errs.Rejected("Invalid credentials")}
	store, local := newStore(t)
	svc := NewService(backend, store)

	_, err := svc.Login(context.Background(), LoginForm{Email: "ana@x.io", Password: "nope"})

	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", errs.UserMessage(err))
	assert.Nil(t, store.Current())

	_, ok, getErr := local.Get(configs.SessionStorageKey)
	require.NoError(t, getErr)
	assert.False(t, ok)
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	backend := &fakeAuth{loginSess: &session.Session{ID: "u1", Username: "ana"}}
	store, _ := newStore(t)

	res, err := NewService(backend, store).Login(context.Background(), LoginForm{Email: "ana@x.io", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, gate.RouteHome, res.Next)
	assert.Equal(t, "Login successful!", res.Notice)
	require.NotNil(t, store.Current())
	assert.Equal(t, "u1", store.Current().ID)
}

func TestLoginTransportFailureIsGeneric(t *testing.T) {
	backend := &fakeAuth{loginErr: errors.New("dial tcp: connection refused")}
	store, _ := newStore(t)

	_, err := NewService(backend, store).Login(context.Background(), LoginForm{Email: "a", Password: "b"})
	assert.Equal(t, "An error occurred. Please try again.", errs.UserMessage(err))
}

func TestLoginRequiresFields(t *testing.T) {
	backend := &fakeAuth{}
	store, _ := newStore(t)

	_, err := NewService(backend, store).Login(context.Background(), LoginForm{Email: "ana@x.io"})
	assert.True(t, errs.HasCode(err, errs.ErrRequiredFields))
	assert.Zero(t, backend.loginCalls)
}

func TestLogoutClearsSession(t *testing.T) {
	backend := &fakeAuth{}
	store, local := newStore(t)
	require.NoError(t, store.Set(&session.Session{ID: "u1"}))

	res, err := NewService(backend, store).Logout(context.Background())

	require.NoError(t, err)
	assert.Equal(t, gate.RouteLogin, res.Next)
	assert.Nil(t, store.Current())
	assert.Equal(t, gate.Unauthenticated, gate.Evaluate(session.NewStore(local).Current()))
}

func TestLogoutFailureKeepsSession(t *testing.T) {
	backend := &fakeAuth{logoutErr: errs.NewError(errs.ErrRequestFailed)}
	store, _ := newStore(t)
	require.NoError(t, store.Set(&session.Session{ID: "u1"}))

	_, err := NewService(backend, store).Logout(context.Background())

	require.Error(t, err)
	assert.NotNil(t, store.Current())
}
