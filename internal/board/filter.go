package board

import (
	"net/url"
	"strings"

	"github.com/yukikurage/taskboard/internal/models"
)

// Filter narrows the task list. Empty fields are unset. Dates use
// constants.DateLayout.
type Filter struct {
	Status       models.TaskStatus
	Priority     models.TaskPriority
	AssignedToID string
	StartDate    string
	EndDate      string
}

// Normalize trims every field.
func (f Filter) Normalize() Filter {
	return Filter{
		Status:       models.TaskStatus(strings.TrimSpace(string(f.Status))),
		Priority:     models.TaskPriority(strings.TrimSpace(string(f.Priority))),
		AssignedToID: strings.TrimSpace(f.AssignedToID),
		StartDate:    strings.TrimSpace(f.StartDate),
		EndDate:      strings.TrimSpace(f.EndDate),
	}
}

// IsZero reports whether no field is set.
func (f Filter) IsZero() bool {
	return f.Normalize() == Filter{}
}

// Query encodes the filter for GET /v1/tasks. A start and end date together
// become a single date_range parameter.
func (f Filter) Query() url.Values {
	f = f.Normalize()
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}

	set("status", string(f.Status))
	set("priority", string(f.Priority))
	set("assigned_to_id", f.AssignedToID)
	if f.StartDate != "" && f.EndDate != "" {
		q.Set("date_range", f.StartDate+","+f.EndDate)
	} else {
		set("start_date", f.StartDate)
		set("end_date", f.EndDate)
	}
	return q
}
