package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard/internal/schedule"
)

func scheduleCmd(flags *rootFlags) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show your tasks on a monthly calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := schedule.MonthOf(time.Now())
			if month != "" {
				var err error
				if m, err = schedule.ParseMonth(month); err != nil {
					return err
				}
			}

			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			user := a.Session.CurrentUser()
			view, err := schedule.Load(cmd.Context(), a.API, user.ID, m)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return writeJSON(cmd.OutOrStdout(), view.Tasks)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task Schedule for %s - %s\n\n", user.FullName(), m)
			writeCalendar(out, m)
			writeAgenda(out, view)
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show (YYYY-MM), default current")
	return cmd
}

func writeCalendar(w io.Writer, m schedule.Month) {
	fmt.Fprintln(w, " Sun Mon Tue Wed Thu Fri Sat")
	for _, week := range m.Weeks() {
		var b strings.Builder
		for _, day := range week {
			if day == 0 {
				b.WriteString("    ")
				continue
			}
			fmt.Fprintf(&b, "%4d", day)
		}
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w)
}

func writeAgenda(w io.Writer, v *schedule.View) {
	if len(v.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks this month.")
		return
	}
	for day := 1; day <= v.Month.Last().Day(); day++ {
		tasks := v.Day(day)
		if len(tasks) == 0 {
			continue
		}
		date := time.Date(v.Month.Year, v.Month.Month, day, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(w, "%s\n", date.Format("Mon Jan 2"))
		for _, t := range tasks {
			fmt.Fprintf(w, "  [%s] %s\n", t.Status, t.Title)
		}
	}
}
