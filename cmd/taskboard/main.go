package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard/internal/app"
	"github.com/yukikurage/taskboard/internal/config"
)

var Version = "dev"

type rootFlags struct {
	configPath string
	apiURL     string
	storage    string
	logLevel   string
	jsonOut    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Kanban task board client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/taskboard/config.toml)")
	pf.StringVar(&flags.apiURL, "api-url", "", "API base URL, overrides TASKBOARD_API_URL")
	pf.StringVar(&flags.storage, "storage", "", "Session storage: file, sqlite, redis or memory")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
	pf.BoolVar(&flags.jsonOut, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(loginCmd(flags))
	rootCmd.AddCommand(registerCmd(flags))
	rootCmd.AddCommand(logoutCmd(flags))
	rootCmd.AddCommand(whoamiCmd(flags))
	rootCmd.AddCommand(usersCmd(flags))
	rootCmd.AddCommand(tasksCmd(flags))
	rootCmd.AddCommand(scheduleCmd(flags))
	rootCmd.AddCommand(boardCmd(flags))

	return rootCmd
}

// loadConfig applies command line flags on top of file and environment.
func (f *rootFlags) loadConfig() (*config.ClientConfig, error) {
	cfg, err := config.LoadClient(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.storage != "" {
		cfg.Storage = f.storage
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *rootFlags) open(ctx context.Context, opts ...app.Option) (*app.App, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, opts...)
}

// openLoggedIn opens the app and fails unless a session is stored.
func (f *rootFlags) openLoggedIn(ctx context.Context, opts ...app.Option) (*app.App, error) {
	a, err := f.open(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.RequireLogin(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}
