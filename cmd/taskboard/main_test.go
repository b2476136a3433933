package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/taskboard/internal/database"
	"github.com/yukikurage/taskboard/internal/handlers"
	"github.com/yukikurage/taskboard/internal/services"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	r := gin.New()
	handlers.RegisterRoutes(r, handlers.NewServices(db, services.NewTokenService("cli-secret", time.Hour)))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// cli runs the root command with a shared file session under dir.
type cli struct {
	t      *testing.T
	apiURL string
	dir    string
}

func (c cli) run(args ...string) (string, error) {
	c.t.Helper()
	c.t.Setenv("TASKBOARD_CONFIG", filepath.Join(c.dir, "missing.toml"))
	c.t.Setenv("TASKBOARD_STORAGE_PATH", filepath.Join(c.dir, "session.json"))
	c.t.Setenv("LOG_LEVEL", "panic")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--api-url", c.apiURL, "--storage", "file"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Workflow(t *testing.T) {
	srv := startServer(t)
	c := cli{t: t, apiURL: srv.URL + "/api", dir: t.TempDir()}

	_, err := c.run("tasks", "list")
	require.Error(t, err)

	out, err := c.run("register", "--first-name", "Ada", "--last-name", "Lovelace",
		"--email", "ada@example.com", "--password", "analytical")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Ada Lovelace")

	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")

	out, err = c.run("tasks", "create", "--title", "Write notes", "--priority", "high",
		"--start", "2024-03-01", "--end", "2024-03-05", "--assign", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Task created successfully")

	out, err = c.run("--json", "tasks", "list", "--priority", "HIGH")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Write notes"`)

	out, err = c.run("tasks", "list", "--assigned-to", "me")
	require.NoError(t, err)
	assert.NotContains(t, out, "Write notes")

	out, err = c.run("schedule", "--month", "2024-03")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2024")

	out, err = c.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out successfully")

	_, err = c.run("whoami")
	assert.Error(t, err)
}

func TestCLI_LoginFailure(t *testing.T) {
	srv := startServer(t)
	c := cli{t: t, apiURL: srv.URL + "/api", dir: t.TempDir()}

	_, err := c.run("login", "--email", "nobody@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "invalid email or password")
}
