package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskcollab/internal/models"
)

const taskColumns = "id, title, description, priority, status, completed, project_id, due_date, created_by, created_at, updated_at"

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Title,
		nullIfEmpty(task.Description),
		string(task.Priority),
		string(task.Status),
		boolInt(task.Completed),
		nullIfEmpty(task.ProjectID),
		nullTime(task.DueDate),
		task.CreatedBy,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	return err
}

// GetTask returns a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// UpdateTask replaces the mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, status = ?, completed = ?, project_id = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`,
		task.Title,
		nullIfEmpty(task.Description),
		string(task.Priority),
		string(task.Status),
		boolInt(task.Completed),
		nullIfEmpty(task.ProjectID),
		nullTime(task.DueDate),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteTask removes a task row. Missing tasks are ignored.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

// ListTasks returns tasks matching the filter in insertion order.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []models.Task{}, nil
	}

	var conditions []string
	var args []any
	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks"+whereClause(conditions)+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// CreateProject inserts a project.
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, owner_id, name, color) VALUES (?, ?, ?, ?)",
		project.ID, project.OwnerID, project.Name, project.Color,
	)
	return err
}

// GetProject returns a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.QueryRowContext(ctx, "SELECT id, owner_id, name, color FROM projects WHERE id = ?", id).
		Scan(&project.ID, &project.OwnerID, &project.Name, &project.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject renames or recolours a project.
func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET name = ?, color = ? WHERE id = ?",
		project.Name, project.Color, project.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteProject removes a project row. Missing projects are ignored.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

// ListProjects returns the projects of an owner in insertion order.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	query := "SELECT id, owner_id, name, color FROM projects"
	var args []any
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(&project.ID, &project.OwnerID, &project.Name, &project.Color); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func scanTask(row scanner) (*models.Task, error) {
	var task models.Task
	var description, projectID, dueDate sql.NullString
	var priority, status, createdAt, updatedAt string
	var completed int

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&priority,
		&status,
		&completed,
		&projectID,
		&dueDate,
		&task.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	task.Description = description.String
	task.Priority = models.TaskPriority(priority)
	task.Status = models.TaskStatus(status)
	task.Completed = completed != 0
	task.ProjectID = projectID.String

	var err error
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if task.DueDate, err = parseNullTime(dueDate); err != nil {
		return nil, err
	}
	return &task, nil
}
