package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard/internal/app"
	"github.com/yukikurage/taskboard/internal/ui"
)

func boardCmd(flags *rootFlags) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive task board",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the board owns the terminal, so logs go to a file
			if logFile == "" {
				logFile = filepath.Join(os.TempDir(), "taskboard.log")
			}
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()

			a, err := flags.openLoggedIn(cmd.Context(), app.WithLogOutput(f))
			if err != nil {
				return err
			}
			defer a.Close()

			return ui.RunBoard(cmd.Context(), a.Board, a.Session)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Where to write logs while the board is open")
	return cmd
}
