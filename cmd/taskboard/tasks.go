package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard/internal/board"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/models"
)

func usersCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users tasks can be assigned to",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Board.LoadUsers(cmd.Context()); err != nil {
				return err
			}
			if flags.jsonOut {
				return writeJSON(cmd.OutOrStdout(), a.Board.Users())
			}
			return writeUsers(cmd.OutOrStdout(), a.Board.Users())
		},
	}
}

func tasksCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
	}

	cmd.AddCommand(tasksListCmd(flags))
	cmd.AddCommand(tasksShowCmd(flags))
	cmd.AddCommand(tasksCreateCmd(flags))
	cmd.AddCommand(tasksUpdateCmd(flags))
	cmd.AddCommand(tasksDeleteCmd(flags))
	cmd.AddCommand(tasksMoveCmd(flags))

	return cmd
}

func tasksListCmd(flags *rootFlags) *cobra.Command {
	var (
		filter     board.Filter
		status     string
		priority   string
		assignedTo string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			filter.Status = models.TaskStatus(strings.ToUpper(status))
			filter.Priority = models.TaskPriority(strings.ToUpper(priority))
			filter.AssignedToID = assignedTo
			if assignedTo == "me" {
				filter.AssignedToID = a.Session.CurrentUser().ID
			}

			if err := a.Board.FetchTasks(cmd.Context(), filter); err != nil {
				return err
			}
			if flags.jsonOut {
				return writeJSON(cmd.OutOrStdout(), a.Board.Tasks())
			}
			return writeTasks(cmd.OutOrStdout(), a.Board.Tasks())
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "TODO, IN_PROGRESS or DONE")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "LOW, MEDIUM or HIGH")
	cmd.Flags().StringVarP(&assignedTo, "assigned-to", "a", "", `User ID, or "me"`)
	cmd.Flags().StringVar(&filter.StartDate, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "to", "", "End date (YYYY-MM-DD)")

	return cmd
}

func tasksShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.Board.LoadTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return writeJSON(cmd.OutOrStdout(), task)
			}
			writeTask(cmd.OutOrStdout(), *task)
			return nil
		},
	}
}

// taskFields are the flags shared by create and update.
type taskFields struct {
	title       string
	description string
	status      string
	priority    string
	start       string
	end         string
	assignee    string
}

func (f *taskFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Description")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "TODO, IN_PROGRESS or DONE")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "LOW, MEDIUM or HIGH")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.assignee, "assign", "a", "", "Assignee user ID")
}

func parseDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(constants.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, value)
	}
	return &t, nil
}

func tasksCreateCmd(flags *rootFlags) *cobra.Command {
	var fields taskFields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate("start", fields.start)
			if err != nil {
				return err
			}
			end, err := parseDate("end", fields.end)
			if err != nil {
				return err
			}

			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.Board.CreateTask(cmd.Context(), dto.CreateTaskRequest{
				Title:        fields.title,
				Description:  fields.description,
				Status:       models.TaskStatus(strings.ToUpper(fields.status)),
				Priority:     models.TaskPriority(strings.ToUpper(fields.priority)),
				StartDate:    start,
				EndDate:      end,
				AssignedToID: fields.assignee,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Board.Banner().Success)
			return nil
		},
	}

	fields.register(cmd)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func tasksUpdateCmd(flags *rootFlags) *cobra.Command {
	var fields taskFields

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.UpdateTaskRequest
			changed := cmd.Flags().Changed

			if changed("title") {
				req.Title = &fields.title
			}
			if changed("description") {
				req.Description = &fields.description
			}
			if changed("status") {
				s := models.TaskStatus(strings.ToUpper(fields.status))
				req.Status = &s
			}
			if changed("priority") {
				p := models.TaskPriority(strings.ToUpper(fields.priority))
				req.Priority = &p
			}
			if changed("assign") {
				req.AssignedToID = &fields.assignee
			}
			var err error
			if req.StartDate, err = parseDate("start", fields.start); err != nil {
				return err
			}
			if req.EndDate, err = parseDate("end", fields.end); err != nil {
				return err
			}

			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Board.UpdateTask(cmd.Context(), args[0], req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Board.Banner().Success)
			return nil
		},
	}

	fields.register(cmd)
	return cmd
}

func tasksDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Board.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Board.Banner().Success)
			return nil
		},
	}
}

func tasksMoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] [status]",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openLoggedIn(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			// the ownership check needs the task on the board
			if err := a.Board.Refresh(cmd.Context()); err != nil {
				return err
			}
			status := models.TaskStatus(strings.ToUpper(args[1]))
			if err := a.Board.MoveTask(cmd.Context(), args[0], status); err != nil {
				return err
			}
			if msg := a.Board.Banner().Success; msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}
}
