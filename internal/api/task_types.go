package api

import "taskcollab/internal/models"

// TaskCreateRequest defines the payload for creating a task.
// DueDate accepts RFC3339 or YYYY-MM-DD.
type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	Status      string  `json:"status,omitempty"`
	ProjectID   string  `json:"project_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// TaskUpdateRequest defines the payload for updating a task. An empty
// due_date string clears the due date.
type TaskUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// TaskStatsResponse is the response from GET /v1/tasks/stats.
type TaskStatsResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// ProjectRequest defines create and update payloads for projects.
type ProjectRequest struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// ProjectResponse is a project with its task counts.
type ProjectResponse struct {
	models.Project
	TaskCount      int `json:"task_count"`
	CompletedTasks int `json:"completed_tasks"`
}

// ProjectDeleteResponse reports how many tasks were removed with a project.
type ProjectDeleteResponse struct {
	ID           string `json:"id"`
	TasksRemoved int    `json:"tasks_removed"`
}
