// Package schedule lays a user's tasks out on a monthly calendar.
package schedule

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/yukikurage/taskboard/internal/board"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/dto"
)

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "2006-01".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

func (m Month) Add(months int) Month {
	return MonthOf(m.First().AddDate(0, months, 0))
}

func (m Month) String() string {
	return m.First().Format("January 2006")
}

// Filter selects the tasks of userID overlapping the month.
func (m Month) Filter(userID string) board.Filter {
	return board.Filter{
		AssignedToID: userID,
		StartDate:    m.First().Format(constants.DateLayout),
		EndDate:      m.Last().Format(constants.DateLayout),
	}
}

// Weeks returns the month as Sunday-first weeks. Days outside the month are 0.
func (m Month) Weeks() [][7]int {
	var weeks [][7]int
	var week [7]int
	col := int(m.First().Weekday())
	for day := 1; day <= m.Last().Day(); day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// TasksOn returns the tasks whose start..end dates include day.
func TasksOn(tasks []dto.TaskDTO, day time.Time) []dto.TaskDTO {
	var out []dto.TaskDTO
	for _, t := range tasks {
		if t.Covers(day) {
			out = append(out, t)
		}
	}
	return out
}

// Lister fetches tasks for a query.
type Lister interface {
	ListTasks(ctx context.Context, query url.Values) ([]dto.TaskDTO, error)
}

// View is one month of one user's tasks.
type View struct {
	Month Month
	Tasks []dto.TaskDTO
}

// Load fetches the tasks assigned to userID that overlap m.
func Load(ctx context.Context, api Lister, userID string, m Month) (*View, error) {
	tasks, err := api.ListTasks(ctx, m.Filter(userID).Query())
	if err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", m, err)
	}
	return &View{Month: m, Tasks: tasks}, nil
}

// Day returns the tasks on a day of the view's month.
func (v *View) Day(day int) []dto.TaskDTO {
	return TasksOn(v.Tasks, time.Date(v.Month.Year, v.Month.Month, day, 0, 0, 0, 0, time.UTC))
}
