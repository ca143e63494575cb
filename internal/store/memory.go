package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"taskcollab/internal/models"
)

// MemoryStore keeps every record in process memory. Records are copied on the
// way in and out so callers never share backing arrays with the store.
type MemoryStore struct {
	mu sync.RWMutex

	invitations   []models.Invitation
	collaborators []models.Collaborator
	comments      []models.Comment
	reviews       []models.Review
	activities    []models.Activity
	notifications []models.Notification

	tasks    []models.Task
	projects []models.Project
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) CreateInvitation(_ context.Context, inv *models.Invitation) error {
	if inv == nil {
		return fmt.Errorf("invitation is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, cloneInvitation(*inv))
	return nil
}

func (m *MemoryStore) GetInvitation(_ context.Context, id string) (*models.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invitations {
		if inv.ID == id {
			out := cloneInvitation(inv)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateInvitation(_ context.Context, inv *models.Invitation) error {
	if inv == nil {
		return fmt.Errorf("invitation is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invitations {
		if m.invitations[i].ID == inv.ID {
			m.invitations[i] = cloneInvitation(*inv)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListInvitations(_ context.Context, filter InvitationFilter) ([]models.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Invitation, 0)
	for _, inv := range m.invitations {
		if filter.TaskID != "" && inv.TaskID != filter.TaskID {
			continue
		}
		if filter.Invitee != "" && inv.InviteeUserID != filter.Invitee && inv.InviteeEmail != filter.Invitee {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, inv.Status) {
			continue
		}
		if filter.ExpiresBefore != nil && !inv.ExpiresAt.Before(*filter.ExpiresBefore) {
			continue
		}
		out = append(out, cloneInvitation(inv))
	}
	return out, nil
}

func (m *MemoryStore) CreateCollaborator(_ context.Context, collaborator *models.Collaborator) error {
	if collaborator == nil {
		return fmt.Errorf("collaborator is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collaborators = append(m.collaborators, cloneCollaborator(*collaborator))
	return nil
}

func (m *MemoryStore) GetCollaborator(_ context.Context, id string) (*models.Collaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.collaborators {
		if c.ID == id {
			out := cloneCollaborator(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateCollaborator(_ context.Context, collaborator *models.Collaborator) error {
	if collaborator == nil {
		return fmt.Errorf("collaborator is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.collaborators {
		if m.collaborators[i].ID == collaborator.ID {
			m.collaborators[i] = cloneCollaborator(*collaborator)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListCollaborators(_ context.Context, filter CollaboratorFilter) ([]models.Collaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Collaborator, 0)
	for _, c := range m.collaborators {
		if filter.TaskID != "" && c.TaskID != filter.TaskID {
			continue
		}
		if filter.UserID != "" && c.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, cloneCollaborator(c))
	}
	return out, nil
}

func (m *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) error {
	if comment == nil {
		return fmt.Errorf("comment is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, cloneComment(*comment))
	return nil
}

func (m *MemoryStore) GetComment(_ context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.comments {
		if c.ID == id {
			out := cloneComment(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateComment(_ context.Context, comment *models.Comment) error {
	if comment == nil {
		return fmt.Errorf("comment is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.comments {
		if m.comments[i].ID == comment.ID {
			m.comments[i] = cloneComment(*comment)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListComments(_ context.Context, filter CommentFilter) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Comment, 0)
	for _, c := range m.comments {
		if filter.TaskID != "" && c.TaskID != filter.TaskID {
			continue
		}
		if filter.ParentID != "" && c.ParentID != filter.ParentID {
			continue
		}
		out = append(out, cloneComment(c))
	}
	return out, nil
}

func (m *MemoryStore) DeleteComments(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = slices.DeleteFunc(m.comments, func(c models.Comment) bool {
		return slices.Contains(ids, c.ID)
	})
	return nil
}

func (m *MemoryStore) CreateReview(_ context.Context, review *models.Review) error {
	if review == nil {
		return fmt.Errorf("review is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, cloneReview(*review))
	return nil
}

func (m *MemoryStore) ListReviews(_ context.Context, taskID string) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Review, 0)
	for _, r := range m.reviews {
		if taskID != "" && r.TaskID != taskID {
			continue
		}
		out = append(out, cloneReview(r))
	}
	return out, nil
}

func (m *MemoryStore) CreateActivity(_ context.Context, activity *models.Activity) error {
	if activity == nil {
		return fmt.Errorf("activity is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *MemoryStore) ListActivities(_ context.Context, taskID string) ([]models.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Activity, 0)
	for _, a := range m.activities {
		if taskID != "" && a.TaskID != taskID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, notification *models.Notification) error {
	if notification == nil {
		return fmt.Errorf("notification is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *MemoryStore) ListNotifications(_ context.Context, filter NotificationFilter) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if filter.UserID != "" && n.UserID != filter.UserID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *MemoryStore) MarkNotificationRead(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.notifications {
		if m.notifications[i].UserID == userID && !m.notifications[i].Read {
			m.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) PurgeTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = slices.DeleteFunc(m.invitations, func(v models.Invitation) bool { return v.TaskID == taskID })
	m.collaborators = slices.DeleteFunc(m.collaborators, func(v models.Collaborator) bool { return v.TaskID == taskID })
	m.comments = slices.DeleteFunc(m.comments, func(v models.Comment) bool { return v.TaskID == taskID })
	m.reviews = slices.DeleteFunc(m.reviews, func(v models.Review) bool { return v.TaskID == taskID })
	m.notifications = slices.DeleteFunc(m.notifications, func(v models.Notification) bool { return v.TaskID == taskID })
	return nil
}

func (m *MemoryStore) PurgeUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = slices.DeleteFunc(m.invitations, func(v models.Invitation) bool { return v.InviterUserID == userID })
	m.collaborators = slices.DeleteFunc(m.collaborators, func(v models.Collaborator) bool { return v.UserID == userID })
	m.comments = slices.DeleteFunc(m.comments, func(v models.Comment) bool { return v.UserID == userID })
	m.reviews = slices.DeleteFunc(m.reviews, func(v models.Review) bool { return v.ReviewerID == userID })
	m.activities = slices.DeleteFunc(m.activities, func(v models.Activity) bool { return v.UserID == userID })
	m.notifications = slices.DeleteFunc(m.notifications, func(v models.Notification) bool { return v.UserID == userID })
	return nil
}

func (m *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, cloneTask(*task))
	return nil
}

func (m *MemoryStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			out := cloneTask(t)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateTask(_ context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == task.ID {
			m.tasks[i] = cloneTask(*task)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = slices.DeleteFunc(m.tasks, func(t models.Task) bool { return t.ID == id })
	return nil
}

func (m *MemoryStore) ListTasks(_ context.Context, filter TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Task, 0)
	for _, t := range m.tasks {
		if filter.IDs != nil && !slices.Contains(filter.IDs, t.ID) {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out, nil
}

func (m *MemoryStore) CreateProject(_ context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = append(m.projects, *project)
	return nil
}

func (m *MemoryStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateProject(_ context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.projects {
		if m.projects[i].ID == project.ID {
			m.projects[i] = *project
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = slices.DeleteFunc(m.projects, func(p models.Project) bool { return p.ID == id })
	return nil
}

func (m *MemoryStore) ListProjects(_ context.Context, ownerID string) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Project, 0)
	for _, p := range m.projects {
		if ownerID != "" && p.OwnerID != ownerID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func cloneInvitation(inv models.Invitation) models.Invitation {
	inv.AcceptedAt = cloneTime(inv.AcceptedAt)
	return inv
}

func cloneCollaborator(c models.Collaborator) models.Collaborator {
	c.AcceptedAt = cloneTime(c.AcceptedAt)
	return c
}

func cloneComment(c models.Comment) models.Comment {
	c.Mentions = append([]string{}, c.Mentions...)
	c.Attachments = append([]models.Attachment{}, c.Attachments...)
	c.Reactions = append([]models.Reaction{}, c.Reactions...)
	c.EditedAt = cloneTime(c.EditedAt)
	return c
}

func cloneReview(r models.Review) models.Review {
	if r.Rating != nil {
		rating := *r.Rating
		r.Rating = &rating
	}
	r.Suggestions = append([]string{}, r.Suggestions...)
	return r
}

func cloneTask(t models.Task) models.Task {
	t.DueDate = cloneTime(t.DueDate)
	return t
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
