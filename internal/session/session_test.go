package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/taskboard/internal/client"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/storage"
)

type fakeAuth struct {
	resp *dto.AuthResponse
	err  error
	hits int
}

func (f *fakeAuth) Login(context.Context, dto.LoginRequest) (*dto.AuthResponse, error) {
	f.hits++
	return f.resp, f.err
}

func (f *fakeAuth) Register(context.Context, dto.RegisterRequest) (*dto.AuthResponse, error) {
	f.hits++
	return f.resp, f.err
}

// countingStore records writes on top of a MemoryStore.
type countingStore struct {
	*storage.MemoryStore
	writes int
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.writes++
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *countingStore) Delete(ctx context.Context, keys ...string) error {
	s.writes++
	return s.MemoryStore.Delete(ctx, keys...)
}

type recordingNav struct {
	calls []string
}

func (n *recordingNav) ToLogin()     { n.calls = append(n.calls, "login") }
func (n *recordingNav) ToDashboard() { n.calls = append(n.calls, "dashboard") }

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func newManager(api AuthAPI) (*Manager, *countingStore, *recordingNav) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	nav := &recordingNav{}
	return NewManager(api, store, WithNavigator(nav), WithLogger(quietLogger())), store, nav
}

var alice = dto.UserDTO{ID: "u1", FirstName: "Alice", LastName: "Smith", Email: "alice@example.com"}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	m, store, nav := newManager(&fakeAuth{resp: &dto.AuthResponse{Token: "tok", User: alice}})

	require.NoError(t, m.Login(ctx, dto.LoginRequest{Email: alice.Email, Password: "secret"}))

	st := m.State()
	assert.True(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
	assert.Equal(t, "tok", st.Token)
	require.NotNil(t, st.User)
	assert.Equal(t, alice, *st.User)

	token, ok, _ := store.Get(ctx, storage.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	raw, ok, _ := store.Get(ctx, storage.KeyUser)
	require.True(t, ok)
	var stored dto.UserDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, alice, stored)

	assert.Equal(t, []string{"dashboard"}, nav.calls)
}

func TestLogin_ServerRejects(t *testing.T) {
	api := &fakeAuth{err: &client.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"}}
	m, store, nav := newManager(api)

	err := m.Login(context.Background(), dto.LoginRequest{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnauthorized))

	st := m.State()
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
	assert.Equal(t, "Invalid email or password", st.Error)
	assert.Nil(t, st.User)
	assert.Zero(t, store.writes)
	assert.Empty(t, nav.calls)
}

func TestLogin_FallbackMessage(t *testing.T) {
	m, _, _ := newManager(&fakeAuth{err: errors.New("connection refused")})

	require.Error(t, m.Login(context.Background(), dto.LoginRequest{Email: "a@b.com", Password: "x"}))
	assert.Equal(t, MsgLoginFailed, m.State().Error)
}

func TestLogin_MissingFieldsSkipsRequest(t *testing.T) {
	api := &fakeAuth{}
	m, _, _ := newManager(api)

	err := m.Login(context.Background(), dto.LoginRequest{Email: "  "})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, api.hits)
	assert.Equal(t, ErrMissingCredentials.Error(), m.State().Error)
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m, _, nav := newManager(&fakeAuth{resp: &dto.AuthResponse{Token: "tok", User: alice}})
		err := m.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Alice", LastName: "Smith", Email: alice.Email, Password: "secret1",
		})
		require.NoError(t, err)
		assert.True(t, m.State().IsAuthenticated)
		assert.Equal(t, []string{"dashboard"}, nav.calls)
	})

	t.Run("conflict", func(t *testing.T) {
		m, store, _ := newManager(&fakeAuth{err: &client.Error{StatusCode: http.StatusConflict, Message: "Email already registered"}})
		err := m.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Alice", LastName: "Smith", Email: alice.Email, Password: "secret1",
		})
		require.Error(t, err)
		assert.Equal(t, "Email already registered", m.State().Error)
		assert.Zero(t, store.writes)
	})

	t.Run("fallback", func(t *testing.T) {
		m, _, _ := newManager(&fakeAuth{err: &client.Error{StatusCode: http.StatusInternalServerError}})
		err := m.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Alice", LastName: "Smith", Email: alice.Email, Password: "secret1",
		})
		require.Error(t, err)
		assert.Equal(t, MsgRegisterFailed, m.State().Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		api := &fakeAuth{}
		m, _, _ := newManager(api)
		err := m.Register(context.Background(), dto.RegisterRequest{Email: alice.Email, Password: "secret1"})
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.Zero(t, api.hits)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	m, store, nav := newManager(&fakeAuth{resp: &dto.AuthResponse{Token: "tok", User: alice}})
	require.NoError(t, m.Login(ctx, dto.LoginRequest{Email: alice.Email, Password: "secret"}))

	require.NoError(t, m.Logout(ctx))

	_, ok, _ := store.Get(ctx, storage.KeyToken)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, storage.KeyUser)
	assert.False(t, ok)

	st := m.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
	assert.Empty(t, m.Token())
	assert.Equal(t, MsgLoggedOut, st.Notice)
	assert.Equal(t, []string{"dashboard", "login"}, nav.calls)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("stored session", func(t *testing.T) {
		m, store, _ := newManager(&fakeAuth{})
		raw, _ := json.Marshal(alice)
		require.NoError(t, store.MemoryStore.Set(ctx, storage.KeyToken, "tok"))
		require.NoError(t, store.MemoryStore.Set(ctx, storage.KeyUser, string(raw)))

		require.NoError(t, m.Restore(ctx))
		assert.True(t, m.State().IsAuthenticated)
		assert.Equal(t, "tok", m.Token())
		assert.Equal(t, alice.ID, m.CurrentUser().ID)
	})

	t.Run("nothing stored", func(t *testing.T) {
		m, _, _ := newManager(&fakeAuth{})
		require.NoError(t, m.Restore(ctx))
		assert.False(t, m.State().IsAuthenticated)
	})

	t.Run("corrupt user", func(t *testing.T) {
		m, store, nav := newManager(&fakeAuth{})
		require.NoError(t, store.MemoryStore.Set(ctx, storage.KeyToken, "tok"))
		require.NoError(t, store.MemoryStore.Set(ctx, storage.KeyUser, "{not json"))

		assert.ErrorIs(t, m.Restore(ctx), ErrCorruptSession)
		assert.False(t, m.State().IsAuthenticated)
		_, ok, _ := store.Get(ctx, storage.KeyToken)
		assert.False(t, ok)
		assert.Equal(t, []string{"login"}, nav.calls)
	})
}

func TestExpire_OnlyWithToken(t *testing.T) {
	ctx := context.Background()
	m, store, nav := newManager(&fakeAuth{resp: &dto.AuthResponse{Token: "tok", User: alice}})

	m.Expire(ctx, "")
	assert.Zero(t, store.writes)
	assert.Empty(t, nav.calls)

	require.NoError(t, m.Login(ctx, dto.LoginRequest{Email: alice.Email, Password: "secret"}))
	m.Expire(ctx, "")

	st := m.State()
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, MsgSessionExpired, st.Error)
	assert.Equal(t, []string{"dashboard", "login"}, nav.calls)
}

func TestClearError(t *testing.T) {
	m, _, _ := newManager(&fakeAuth{err: errors.New("boom")})
	_ = m.Login(context.Background(), dto.LoginRequest{Email: "a@b.com", Password: "x"})
	require.NotEmpty(t, m.State().Error)

	m.ClearError()
	assert.Empty(t, m.State().Error)
}

// Any 401 seen by the API client ends the session.
func TestUnauthorizedResponseExpiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.AuthResponse{Token: "tok", User: alice})
	})
	r.GET("/api/v1/tasks", func(c *gin.Context) {
		apierrors.Unauthorized(c, MsgSessionExpired)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx := context.Background()
	api := client.New(srv.URL+"/api", client.WithLogger(quietLogger()))
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	nav := &recordingNav{}
	m := NewManager(api, store, WithNavigator(nav), WithLogger(quietLogger()))
	api.SetTokenSource(m.Token)
	api.SetUnauthorizedHandler(m.UnauthorizedHandler())

	require.NoError(t, m.Login(ctx, dto.LoginRequest{Email: alice.Email, Password: "secret"}))

	_, err := api.ListTasks(ctx, nil)
	require.ErrorIs(t, err, client.ErrUnauthorized)

	st := m.State()
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, MsgSessionExpired, st.Error)
	_, ok, _ := store.Get(ctx, storage.KeyToken)
	assert.False(t, ok)
	assert.Equal(t, []string{"dashboard", "login"}, nav.calls)
}
