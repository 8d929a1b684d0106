package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gallery/internal/api"
	"github.com/dmitrijs2005/gallery/internal/client/client"
	"github.com/dmitrijs2005/gallery/internal/client/config"
	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	regUser string
	regPass []byte
	regErr  error

	loginPass []byte
	loginErr  error

	meErr  error
	logout bool
}

func (f *fakeAPI) Register(_ context.Context, user string, pass []byte) (string, error) {
	f.regUser, f.regPass = user, append([]byte(nil), pass...)
	return "id-" + user, f.regErr
}

func (f *fakeAPI) Login(_ context.Context, user string, pass []byte) (*api.LoginResponse, error) {
	f.loginPass = pass
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.LoginResponse{
		Success:   true,
		User:      api.User{UserID: "id-" + user, UserName: user},
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAPI) Logout() { f.logout = true }

func (f *fakeAPI) Me(context.Context) (*api.Identity, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &api.Identity{UserID: "id-bob", UserName: "bob", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]api.User, error) {
	return []api.User{{UserID: "id-alice", UserName: "alice"}, {UserID: "id-bob", UserName: "bob"}}, nil
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

func stubInputs(t *testing.T, username string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() { getSimpleText, getPassword = origST, origGP })
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return username, nil }
	getPassword = func(*bufio.Reader, io.Writer) ([]byte, error) { return password, nil }
}

func newTestApp(f *fakeAPI) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{api: f, reader: bufio.NewReader(strings.NewReader("")), out: &out}, &out
}

func TestNewApp(t *testing.T) {
	cfg := &config.Config{ServerURL: "http://localhost:1", RequestTimeout: time.Second}
	app := NewApp(cfg, strings.NewReader(""), io.Discard)
	assert.IsType(t, &client.HTTPClient{}, app.api)
	assert.False(t, app.isLoggedIn())
}

func TestRegister_WipesPassword(t *testing.T) {
	pw := []byte("secret123")
	stubInputs(t, "bob", pw)

	f := &fakeAPI{}
	app, out := newTestApp(f)

	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, "bob", f.regUser)
	assert.Equal(t, []byte("secret123"), f.regPass)
	assert.Equal(t, make([]byte, len(pw)), pw, "password must be wiped")
	assert.Contains(t, out.String(), "id-bob")
}

func TestRegister_Error(t *testing.T) {
	stubInputs(t, "bob", []byte("pw"))
	app, _ := newTestApp(&fakeAPI{regErr: common.ErrDuplicateUserName})

	assert.ErrorIs(t, app.Register(context.Background()), common.ErrDuplicateUserName)
}

func TestLogin(t *testing.T) {
	pw := []byte("secret123")
	stubInputs(t, "bob", pw)

	f := &fakeAPI{}
	app, out := newTestApp(f)

	require.NoError(t, app.Login(context.Background()))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(bob)", app.status())
	assert.Contains(t, out.String(), "Logged in as bob")
	assert.Equal(t, make([]byte, len(pw)), pw)
}

func TestLogin_Failure(t *testing.T) {
	stubInputs(t, "bob", []byte("bad"))
	app, _ := newTestApp(&fakeAPI{loginErr: client.ErrUnauthorized})

	assert.ErrorIs(t, app.Login(context.Background()), client.ErrUnauthorized)
	assert.False(t, app.isLoggedIn())
}

func TestMe_UnauthorizedLogsOut(t *testing.T) {
	f := &fakeAPI{meErr: client.ErrUnauthorized}
	app, _ := newTestApp(f)
	app.userName = "bob"

	assert.ErrorIs(t, app.Me(context.Background()), client.ErrUnauthorized)
	assert.False(t, app.isLoggedIn())
	assert.True(t, f.logout)
}

func TestMeUsersPing(t *testing.T) {
	app, out := newTestApp(&fakeAPI{})

	require.NoError(t, app.Me(context.Background()))
	require.NoError(t, app.Users(context.Background()))
	require.NoError(t, app.Ping(context.Background()))

	s := out.String()
	assert.Contains(t, s, "bob (id-bob)")
	assert.Contains(t, s, "id-alice\talice\n")
	assert.Contains(t, s, "Server is up")
}
