package tasks

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"taskcollab/internal/models"
)

// StatusFilter selects tasks by completion.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// DateRange selects tasks by due date relative to now.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

// Filter narrows a task list. Zero values match everything.
type Filter struct {
	Search    string
	Priority  models.TaskPriority
	ProjectID string
	Status    StatusFilter
	DateRange DateRange
}

// ParseStatusFilter validates a completion filter value.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	value := StatusFilter(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "", StatusAll:
		return StatusAll, nil
	case StatusCompleted, StatusPending:
		return value, nil
	default:
		return "", fmt.Errorf("invalid status filter: %s", raw)
	}
}

// ParseDateRange validates a due-date range value.
func ParseDateRange(raw string) (DateRange, error) {
	value := DateRange(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "", RangeAll:
		return RangeAll, nil
	case RangeToday, RangeWeek, RangeMonth:
		return value, nil
	default:
		return "", fmt.Errorf("invalid date range: %s", raw)
	}
}

// Apply returns the tasks matching f, newest first.
func (f Filter) Apply(tasks []models.Task, now time.Time) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t, now) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Matches reports whether t passes every criterion of f.
func (f Filter) Matches(t models.Task, now time.Time) bool {
	if search := strings.TrimSpace(f.Search); search != "" {
		folder := cases.Fold()
		needle := folder.String(search)
		if !strings.Contains(folder.String(t.Title), needle) && !strings.Contains(folder.String(t.Description), needle) {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	switch f.Status {
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	case StatusPending:
		if t.Completed {
			return false
		}
	}
	return matchesDateRange(f.DateRange, t.DueDate, now)
}

// Tasks without a due date always pass the date range.
func matchesDateRange(r DateRange, due *time.Time, now time.Time) bool {
	if due == nil {
		return true
	}
	switch r {
	case RangeToday:
		y1, m1, d1 := due.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case RangeWeek:
		return !due.Before(now) && !due.After(now.Add(7*24*time.Hour))
	case RangeMonth:
		return !due.Before(now) && !due.After(now.Add(30*24*time.Hour))
	default:
		return true
	}
}
