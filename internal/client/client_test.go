package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/models"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	auth   string
}

func newStubServer(t *testing.T, register func(r *gin.Engine, seen *[]recorded)) (*httptest.Server, *[]recorded) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seen := &[]recorded{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		*seen = append(*seen, recorded{
			method: c.Request.Method,
			path:   c.Request.URL.Path,
			query:  c.Request.URL.Query(),
			auth:   c.GetHeader("Authorization"),
		})
		c.Next()
	})
	register(r, seen)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestClient_SendsBearerAndQuery(t *testing.T) {
	srv, seen := newStubServer(t, func(r *gin.Engine, _ *[]recorded) {
		r.GET("/api/v1/tasks", func(c *gin.Context) {
			c.JSON(http.StatusOK, []dto.TaskDTO{{ID: "t1", Title: "Write code", Status: models.TaskStatusTodo}})
		})
	})

	c := New(srv.URL+"/api/", WithTokenSource(func() string { return "tok-123" }))

	tasks, err := c.ListTasks(context.Background(), url.Values{
		"status":     {"TODO"},
		"date_range": {"2024-01-01,2024-01-31"},
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write code", tasks[0].Title)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "/api/v1/tasks", got.path)
	assert.Equal(t, "Bearer tok-123", got.auth)
	assert.Equal(t, "TODO", got.query.Get("status"))
	assert.Equal(t, "2024-01-01,2024-01-31", got.query.Get("date_range"))
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	srv, seen := newStubServer(t, func(r *gin.Engine, _ *[]recorded) {
		r.POST("/api/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, dto.AuthResponse{Token: "fresh", User: dto.UserDTO{ID: "u1"}})
		})
	})

	resp, err := New(srv.URL+"/api").Login(context.Background(), dto.LoginRequest{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", resp.Token)
	assert.Empty(t, (*seen)[0].auth)
}

func TestClient_DeleteUsesVersionedPath(t *testing.T) {
	srv, seen := newStubServer(t, func(r *gin.Engine, _ *[]recorded) {
		r.DELETE("/api/v1/tasks/:id", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	})

	require.NoError(t, New(srv.URL+"/api").DeleteTask(context.Background(), "abc"))
	assert.Equal(t, http.MethodDelete, (*seen)[0].method)
	assert.Equal(t, "/api/v1/tasks/abc", (*seen)[0].path)
}

func TestClient_UnauthorizedRunsHook(t *testing.T) {
	srv, _ := newStubServer(t, func(r *gin.Engine, _ *[]recorded) {
		r.GET("/api/v1/users", func(c *gin.Context) {
			apierrors.Unauthorized(c, "token expired")
		})
	})

	var hooked *Error
	c := New(srv.URL+"/api", WithUnauthorizedHandler(func(_ context.Context, err *Error) {
		hooked = err
	}))

	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "token expired", Message(err))

	require.NotNil(t, hooked)
	assert.Equal(t, http.StatusUnauthorized, hooked.StatusCode)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, hooked.Code)
}

func TestClient_OtherErrorsSkipHook(t *testing.T) {
	srv, _ := newStubServer(t, func(r *gin.Engine, _ *[]recorded) {
		r.PUT("/api/v1/tasks/:id", func(c *gin.Context) {
			c.String(http.StatusBadGateway, "upstream down")
		})
	})

	called := false
	c := New(srv.URL+"/api", WithUnauthorizedHandler(func(context.Context, *Error) { called = true }))

	status := models.TaskStatusDone
	_, err := c.UpdateTask(context.Background(), "t1", dto.UpdateTaskRequest{Status: &status})
	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, errors.Is(err, ErrUnauthorized))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL).ListUsers(context.Background())
	require.Error(t, err)
	assert.Empty(t, Message(err))
}

func TestNew_TimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}

	c := New("http://example.test", WithHTTPClient(shared), WithTimeout(5*time.Second))
	assert.Equal(t, 5*time.Second, c.http.Timeout)
	assert.Zero(t, shared.Timeout)

	c = New("http://example.test", WithTimeout(5*time.Second), WithHTTPClient(shared))
	assert.Equal(t, 5*time.Second, c.http.Timeout)
	assert.Zero(t, shared.Timeout)
	assert.NotSame(t, shared, c.http)

	c = New("http://example.test", WithHTTPClient(shared))
	assert.Same(t, shared, c.http)
}
