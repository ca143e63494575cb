package store

import (
	"context"
	"errors"
	"time"

	"taskcollab/internal/models"
)

// ErrNotFound is returned by update operations when the target record is missing.
var ErrNotFound = errors.New("record not found")

// InvitationFilter selects invitations. Empty fields match everything.
// Invitee matches either the resolved invitee user id or the raw invitee email.
type InvitationFilter struct {
	TaskID        string
	Invitee       string
	Statuses      []models.InvitationStatus
	ExpiresBefore *time.Time
}

// CollaboratorFilter selects collaborators. Empty fields match everything.
type CollaboratorFilter struct {
	TaskID string
	UserID string
	Status models.CollaboratorStatus
}

// CommentFilter selects comments. Empty fields match everything.
type CommentFilter struct {
	TaskID   string
	ParentID string
}

// NotificationFilter selects notifications for one user.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
}

// CollabStore abstracts collaboration storage backends.
// List operations return records in insertion order; Get operations return
// nil without error when the record does not exist.
type CollabStore interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, id string) (*models.Invitation, error)
	UpdateInvitation(ctx context.Context, inv *models.Invitation) error
	ListInvitations(ctx context.Context, filter InvitationFilter) ([]models.Invitation, error)

	CreateCollaborator(ctx context.Context, collaborator *models.Collaborator) error
	GetCollaborator(ctx context.Context, id string) (*models.Collaborator, error)
	UpdateCollaborator(ctx context.Context, collaborator *models.Collaborator) error
	ListCollaborators(ctx context.Context, filter CollaboratorFilter) ([]models.Collaborator, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, filter CommentFilter) ([]models.Comment, error)
	DeleteComments(ctx context.Context, ids []string) error

	CreateReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, taskID string) ([]models.Review, error)

	CreateActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, taskID string) ([]models.Activity, error)

	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)

	PurgeTask(ctx context.Context, taskID string) error
	PurgeUser(ctx context.Context, userID string) error
}

// TaskFilter selects tasks. Empty fields match everything; a non-nil empty
// IDs slice matches nothing.
type TaskFilter struct {
	IDs       []string
	ProjectID string
}

// TaskStore abstracts task and project storage backends.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
}

// Backend is a store that serves both tasks and collaboration data.
type Backend interface {
	CollabStore
	TaskStore
	Close() error
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*MemoryStore)(nil)
)
