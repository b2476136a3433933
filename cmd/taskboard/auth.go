package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/session"
)

func loginCmd(flags *rootFlags) *cobra.Command {
	var req dto.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if req.Password == "" {
				if req.Password, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: "); err != nil {
					return err
				}
			}
			if err := a.Session.Login(cmd.Context(), req); err != nil {
				return authError(a.Session.State(), err)
			}
			u := a.Session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", u.FullName(), u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func registerCmd(flags *rootFlags) *cobra.Command {
	var req dto.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if req.Password == "" {
				if req.Password, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: "); err != nil {
					return err
				}
			}
			if err := a.Session.Register(cmd.Context(), req); err != nil {
				return authError(a.Session.State(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", a.Session.CurrentUser().FullName())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (prompted when empty)")
	for _, name := range []string{"first-name", "last-name", "email"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func logoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Session.State().Notice)
			return nil
		},
	}
}

func whoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u := a.Session.CurrentUser()
			if flags.jsonOut {
				return writeJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", u.FullName(), u.Email, u.ID)
			return nil
		},
	}
}

// authError prefers the message the session recorded for the user.
func authError(st session.State, err error) error {
	if st.Error != "" {
		return errors.New(st.Error)
	}
	return err
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
