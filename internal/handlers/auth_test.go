package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
)

func TestAuthHandler_Register(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.register(t, "Ada", "Ada@Example.com")

	require.NotEmpty(t, resp.Token)
	require.Equal(t, "Ada", resp.User.FirstName)
	require.Equal(t, "ada@example.com", resp.User.Email)

	userID, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, userID)
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "ada@example.com",
		Password:  "supersecret",
	})

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_RegisterMissingField(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupTestEnv(t)
	registered := env.register(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, registered.User.ID, resp.User.ID)
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	apiErr := apierrors.Parse(w.Body.Bytes())
	require.NotNil(t, apiErr)
	require.Equal(t, apierrors.ErrCodeInvalidCredentials, apiErr.Code)
	require.Equal(t, "invalid email or password", apiErr.Message)
}

func TestRequireAuth_RejectsMissingAndBadTokens(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/tasks", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	apiErr := apierrors.Parse(w.Body.Bytes())
	require.NotNil(t, apiErr)
	require.Equal(t, apierrors.ErrCodeUnauthorized, apiErr.Code)
}

func TestUserHandler_ListUsers(t *testing.T) {
	env := setupTestEnv(t)
	ada := env.register(t, "Ada", "ada@example.com")
	env.register(t, "Grace", "grace@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/users", ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var users []dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	require.Equal(t, "Ada", users[0].FirstName)
	require.Equal(t, "Grace", users[1].FirstName)
}
