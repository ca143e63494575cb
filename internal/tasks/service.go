package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskcollab/internal/collab"
	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// CreateInput carries the fields of a new task.
type CreateInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Status      models.TaskStatus
	ProjectID   string
	DueDate     *time.Time
}

// UpdateInput carries optional task changes; nil fields are left alone.
type UpdateInput struct {
	Title        *string
	Description  *string
	Priority     *models.TaskPriority
	Status       *models.TaskStatus
	ProjectID    *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Stats summarises completion across a set of tasks.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service owns tasks and projects and defers access decisions to the
// collaboration service.
type Service struct {
	store  store.TaskStore
	collab *collab.Service
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// NewService constructs a task Service.
func NewService(st store.TaskStore, collabSvc *collab.Service, opts ...Option) *Service {
	s := &Service{
		store:  st,
		collab: collabSvc,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default().With("component", "tasks"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a task and makes its creator the owning collaborator.
func (s *Service) Create(ctx context.Context, creator models.Actor, input CreateInput) (*models.Task, error) {
	if strings.TrimSpace(creator.ID) == "" {
		return nil, collab.InvalidArgument("user id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, collab.InvalidArgument("title is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.DefaultPriority
	}
	if !models.IsValidTaskPriority(priority) {
		return nil, collab.InvalidArgument("invalid priority: %s", priority)
	}
	status := input.Status
	if status == "" {
		status = models.StatusTodo
	}
	if !models.IsValidTaskStatus(status) {
		return nil, collab.InvalidArgument("invalid status: %s", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkProject(ctx, creator, input.ProjectID); err != nil {
		return nil, err
	}

	id, err := store.GenerateID(store.PrefixTask)
	if err != nil {
		return nil, err
	}
	now := s.now()
	task := &models.Task{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Status:      status,
		Completed:   status == models.StatusDone,
		ProjectID:   input.ProjectID,
		DueDate:     input.DueDate,
		CreatedBy:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if err := s.collab.RecordActivity(ctx, task.ID, creator, models.ActivityCreated, "created the task", nil); err != nil {
		return nil, err
	}

	// The creator is invited by address and then accepts as owner.
	invitee := creator.Email
	if invitee == "" {
		invitee = creator.ID
	}
	inv, err := s.collab.InviteUserToTask(ctx, collab.TaskRef{ID: task.ID, Title: task.Title}, creator, invitee, models.RoleOwner, "")
	if err != nil {
		return nil, fmt.Errorf("invite owner: %w", err)
	}
	if _, err := s.collab.AcceptInvitation(ctx, inv.ID, creator); err != nil {
		return nil, fmt.Errorf("accept owner invitation: %w", err)
	}

	s.logger.Debug("task created", "task_id", task.ID, "created_by", creator.ID)
	return task, nil
}

// Get returns a task visible to actor.
func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, collab.NotFound("task not found")
	}
	perms, err := s.collab.TaskPermissions(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if perms == (models.Permissions{}) {
		return nil, collab.Forbidden("not a collaborator on task %s", id)
	}
	return task, nil
}

// Update applies changes to a task when actor may edit it.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, input UpdateInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, perms, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !perms.CanEdit {
		return nil, collab.Forbidden("user %s cannot edit task %s", actor.ID, id)
	}

	var changes []change
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, collab.InvalidArgument("title is required")
		}
		if title != task.Title {
			task.Title = title
			changes = append(changes, change{models.ActivityUpdated, "updated the title"})
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description != task.Description {
			task.Description = description
			changes = append(changes, change{models.ActivityUpdated, "updated the description"})
		}
	}
	if input.Priority != nil {
		if !models.IsValidTaskPriority(*input.Priority) {
			return nil, collab.InvalidArgument("invalid priority: %s", *input.Priority)
		}
		if *input.Priority != task.Priority {
			changes = append(changes, change{models.ActivityPriorityChanged, fmt.Sprintf("changed priority from %s to %s", task.Priority, *input.Priority)})
			task.Priority = *input.Priority
		}
	}
	if input.Status != nil {
		if !models.IsValidTaskStatus(*input.Status) {
			return nil, collab.InvalidArgument("invalid status: %s", *input.Status)
		}
		if *input.Status != task.Status {
			if !perms.CanChangeStatus {
				return nil, collab.Forbidden("user %s cannot change status of task %s", actor.ID, id)
			}
			changes = append(changes, statusChange(task.Status, *input.Status))
			task.Status = *input.Status
			task.Completed = task.Status == models.StatusDone
		}
	}
	if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
		if err := s.checkProject(ctx, actor, *input.ProjectID); err != nil {
			return nil, err
		}
		task.ProjectID = *input.ProjectID
		changes = append(changes, change{models.ActivityUpdated, "moved the task to another project"})
	}
	switch {
	case input.ClearDueDate && task.DueDate != nil:
		task.DueDate = nil
		changes = append(changes, change{models.ActivityDueDateChanged, "cleared the due date"})
	case input.DueDate != nil && (task.DueDate == nil || !task.DueDate.Equal(*input.DueDate)):
		due := *input.DueDate
		task.DueDate = &due
		changes = append(changes, change{models.ActivityDueDateChanged, "changed the due date to " + due.Format(time.DateOnly)})
	}

	if len(changes) == 0 {
		return task, nil
	}
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	for _, c := range changes {
		if err := s.collab.RecordActivity(ctx, task.ID, actor, c.kind, c.description, nil); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("task updated", "task_id", task.ID, "changes", len(changes))
	return task, nil
}

// Toggle flips completion, moving the status between done and todo.
func (s *Service) Toggle(ctx context.Context, actor models.Actor, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, perms, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !perms.CanEdit || !perms.CanChangeStatus {
		return nil, collab.Forbidden("user %s cannot change status of task %s", actor.ID, id)
	}

	previous := task.Status
	task.Completed = !task.Completed
	if task.Completed {
		task.Status = models.StatusDone
	} else {
		task.Status = models.StatusTodo
	}
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	c := statusChange(previous, task.Status)
	if err := s.collab.RecordActivity(ctx, task.ID, actor, c.kind, c.description, nil); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task and its collaboration data when actor may delete it.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, perms, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return err
	}
	if !perms.CanDelete {
		return collab.Forbidden("user %s cannot delete task %s", actor.ID, id)
	}
	return s.deleteTask(ctx, actor, task.ID)
}

// List returns the tasks actor collaborates on that match filter, newest first.
func (s *Service) List(ctx context.Context, actor models.Actor, filter Filter) ([]models.Task, error) {
	visible, err := s.visibleTasks(ctx, actor)
	if err != nil {
		return nil, err
	}
	return filter.Apply(visible, s.now()), nil
}

// Stats counts the tasks actor collaborates on.
func (s *Service) Stats(ctx context.Context, actor models.Actor) (Stats, error) {
	visible, err := s.visibleTasks(ctx, actor)
	if err != nil {
		return Stats{}, err
	}
	return computeStats(visible), nil
}

func (s *Service) visibleTasks(ctx context.Context, actor models.Actor) ([]models.Task, error) {
	ids, err := s.collab.UserTaskIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, store.TaskFilter{IDs: ids})
}

func (s *Service) loadForChange(ctx context.Context, actor models.Actor, id string) (*models.Task, models.Permissions, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, models.Permissions{}, err
	}
	if task == nil {
		return nil, models.Permissions{}, collab.NotFound("task not found")
	}
	perms, err := s.collab.TaskPermissions(ctx, id, actor.ID)
	if err != nil {
		return nil, models.Permissions{}, err
	}
	return task, perms, nil
}

func (s *Service) deleteTask(ctx context.Context, actor models.Actor, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if err := s.collab.PurgeTask(ctx, id, actor); err != nil {
		return err
	}
	s.logger.Debug("task deleted", "task_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) checkProject(ctx context.Context, actor models.Actor, projectID string) error {
	if projectID == "" {
		return nil
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil || project.OwnerID != actor.ID {
		return collab.NotFound("project not found")
	}
	return nil
}

type change struct {
	kind        models.ActivityType
	description string
}

func statusChange(from, to models.TaskStatus) change {
	if to == models.StatusDone {
		return change{models.ActivityCompleted, "completed the task"}
	}
	return change{models.ActivityStatusChanged, fmt.Sprintf("changed status from %s to %s", from, to)}
}

func computeStats(tasks []models.Task) Stats {
	stats := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}

// IsNotFound reports whether err is a missing-record error from either layer.
func IsNotFound(err error) bool {
	return collab.IsKind(err, collab.KindNotFound) || errors.Is(err, store.ErrNotFound)
}
