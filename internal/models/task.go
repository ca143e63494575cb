package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus defines allowed lifecycle states for tasks.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// TaskPriority defines task urgency levels.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"

	DefaultPriority = PriorityMedium
)

// Task is a unit of work owned by the task store.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	Completed   bool         `json:"completed"`
	ProjectID   string       `json:"project_id,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Project groups tasks for a single owner.
type Project struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

// Actor is the identity supplied by the auth collaborator. Fields are opaque.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

var validTaskStatuses = map[TaskStatus]struct{}{
	StatusTodo:       {},
	StatusInProgress: {},
	StatusDone:       {},
}

var validTaskPriorities = map[TaskPriority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

func IsValidTaskStatus(status TaskStatus) bool {
	_, ok := validTaskStatuses[status]
	return ok
}

func IsValidTaskPriority(priority TaskPriority) bool {
	_, ok := validTaskPriorities[priority]
	return ok
}

func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidTaskStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

func ParseTaskPriority(raw string) (TaskPriority, error) {
	value := TaskPriority(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("priority is required")
	}
	if !IsValidTaskPriority(value) {
		return "", fmt.Errorf("invalid priority: %s", value)
	}
	return value, nil
}

// DefaultProjects returns the projects seeded for a user on first use.
func DefaultProjects(ownerID string) []Project {
	return []Project{
		{OwnerID: ownerID, Name: "Personal", Color: "#3B82F6"},
		{OwnerID: ownerID, Name: "Work", Color: "#10B981"},
		{OwnerID: ownerID, Name: "Health", Color: "#8B5CF6"},
	}
}
