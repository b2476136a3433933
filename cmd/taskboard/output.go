package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/dto"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTasks(w io.Writer, tasks []dto.TaskDTO) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTITLE\tOWNER\tASSIGNEE\tDATES")
	for _, t := range tasks {
		assignee := "-"
		if t.AssignedTo != nil {
			assignee = t.AssignedTo.FullName()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Priority, t.Title, t.OwnedBy.FullName(), assignee, dateSpan(t))
	}
	return tw.Flush()
}

func writeTask(w io.Writer, t dto.TaskDTO) {
	fmt.Fprintf(w, "%s\n", t.Title)
	fmt.Fprintf(w, "  ID:        %s\n", t.ID)
	fmt.Fprintf(w, "  Status:    %s\n", t.Status)
	fmt.Fprintf(w, "  Priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "  Owner:     %s <%s>\n", t.OwnedBy.FullName(), t.OwnedBy.Email)
	if t.AssignedTo != nil {
		fmt.Fprintf(w, "  Assignee:  %s <%s>\n", t.AssignedTo.FullName(), t.AssignedTo.Email)
	}
	if span := dateSpan(t); span != "-" {
		fmt.Fprintf(w, "  Dates:     %s\n", span)
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", t.Description)
	}
}

func writeUsers(w io.Writer, users []dto.UserDTO) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.FullName(), u.Email)
	}
	return tw.Flush()
}

func dateSpan(t dto.TaskDTO) string {
	start, end := "", ""
	if t.StartDate != nil {
		start = t.StartDate.Format(constants.DateLayout)
	}
	if t.EndDate != nil {
		end = t.EndDate.Format(constants.DateLayout)
	}
	if start == "" && end == "" {
		return "-"
	}
	return start + ".." + end
}
