package collab

import (
	"context"
	"fmt"
	"sort"

	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// TaskCollaborators returns the accepted collaborators of a task.
func (s *Service) TaskCollaborators(ctx context.Context, taskID string) ([]models.Collaborator, error) {
	return s.store.ListCollaborators(ctx, store.CollaboratorFilter{
		TaskID: taskID,
		Status: models.CollaboratorAccepted,
	})
}

// TaskComments returns the comments of a task, oldest first.
func (s *Service) TaskComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	comments, err := s.store.ListComments(ctx, store.CommentFilter{TaskID: taskID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// TaskActivities returns the activity log of a task, newest first.
func (s *Service) TaskActivities(ctx context.Context, taskID string) ([]models.Activity, error) {
	activities, err := s.store.ListActivities(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
	return activities, nil
}

// TaskReviews returns the reviews of a task, newest first.
func (s *Service) TaskReviews(ctx context.Context, taskID string) ([]models.Review, error) {
	reviews, err := s.store.ListReviews(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

// Invitation returns one invitation.
func (s *Service) Invitation(ctx context.Context, id string) (*models.Invitation, error) {
	inv, err := s.store.GetInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NotFound("invitation not found")
	}
	return inv, nil
}

// Collaborator returns one collaborator record.
func (s *Service) Collaborator(ctx context.Context, id string) (*models.Collaborator, error) {
	collaborator, err := s.store.GetCollaborator(ctx, id)
	if err != nil {
		return nil, err
	}
	if collaborator == nil {
		return nil, NotFound("collaborator not found")
	}
	return collaborator, nil
}

// Comment returns one comment.
func (s *Service) Comment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, NotFound("comment not found")
	}
	return comment, nil
}

// UserInvitations returns invitations whose resolved invitee id or raw email
// matches any of identities.
func (s *Service) UserInvitations(ctx context.Context, identities ...string) ([]models.Invitation, error) {
	out := make([]models.Invitation, 0)
	seen := make(map[string]struct{})
	for _, identity := range identities {
		if identity == "" {
			continue
		}
		invitations, err := s.store.ListInvitations(ctx, store.InvitationFilter{Invitee: identity})
		if err != nil {
			return nil, err
		}
		for _, inv := range invitations {
			if _, ok := seen[inv.ID]; ok {
				continue
			}
			seen[inv.ID] = struct{}{}
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UserNotifications returns notifications addressed to any of identities, newest first.
func (s *Service) UserNotifications(ctx context.Context, identities ...string) ([]models.Notification, error) {
	return s.notifications(ctx, false, identities)
}

// UnreadNotificationsCount counts unread notifications addressed to any of identities.
func (s *Service) UnreadNotificationsCount(ctx context.Context, identities ...string) (int, error) {
	unread, err := s.notifications(ctx, true, identities)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

func (s *Service) notifications(ctx context.Context, unreadOnly bool, identities []string) ([]models.Notification, error) {
	out := make([]models.Notification, 0)
	seen := make(map[string]struct{})
	for _, identity := range identities {
		if identity == "" {
			continue
		}
		if _, ok := seen[identity]; ok {
			continue
		}
		seen[identity] = struct{}{}
		notifications, err := s.store.ListNotifications(ctx, store.NotificationFilter{UserID: identity, UnreadOnly: unreadOnly})
		if err != nil {
			return nil, err
		}
		out = append(out, notifications...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkNotificationAsRead flags a notification as read. Unknown ids are ignored.
func (s *Service) MarkNotificationAsRead(ctx context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.store.MarkNotificationRead(ctx, notificationID)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Debug("mark read: notification not found", "notification_id", notificationID)
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of identities and returns the count.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, identities ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	seen := make(map[string]struct{})
	for _, identity := range identities {
		if identity == "" {
			continue
		}
		if _, ok := seen[identity]; ok {
			continue
		}
		seen[identity] = struct{}{}
		count, err := s.store.MarkAllNotificationsRead(ctx, identity)
		if err != nil {
			return total, err
		}
		total += count
	}
	return total, nil
}

// TaskPermissions returns the capability set of userID on taskID.
// Users without an accepted collaborator record get no capabilities.
func (s *Service) TaskPermissions(ctx context.Context, taskID, userID string) (models.Permissions, error) {
	collaborator, err := s.acceptedCollaborator(ctx, taskID, userID)
	if err != nil {
		return models.Permissions{}, err
	}
	if collaborator == nil {
		return models.Permissions{}, nil
	}
	return collaborator.Permissions, nil
}

// CanUserEditTask reports whether userID may edit the task's fields.
func (s *Service) CanUserEditTask(ctx context.Context, taskID, userID string) (bool, error) {
	perms, err := s.TaskPermissions(ctx, taskID, userID)
	return perms.CanEdit, err
}

// CanUserCommentOnTask reports whether userID may comment on the task.
func (s *Service) CanUserCommentOnTask(ctx context.Context, taskID, userID string) (bool, error) {
	perms, err := s.TaskPermissions(ctx, taskID, userID)
	return perms.CanComment, err
}

// CanUserInviteToTask reports whether userID may invite others to the task.
func (s *Service) CanUserInviteToTask(ctx context.Context, taskID, userID string) (bool, error) {
	perms, err := s.TaskPermissions(ctx, taskID, userID)
	return perms.CanInvite, err
}

// CanUserDeleteTask reports whether userID may delete the task.
func (s *Service) CanUserDeleteTask(ctx context.Context, taskID, userID string) (bool, error) {
	perms, err := s.TaskPermissions(ctx, taskID, userID)
	return perms.CanDelete, err
}

// CanUserChangeStatus reports whether userID may change the task's status.
func (s *Service) CanUserChangeStatus(ctx context.Context, taskID, userID string) (bool, error) {
	perms, err := s.TaskPermissions(ctx, taskID, userID)
	return perms.CanChangeStatus, err
}

// RecordActivity appends an activity on behalf of a collaborating module.
func (s *Service) RecordActivity(ctx context.Context, taskID string, actor models.Actor, kind models.ActivityType, description string, metadata map[string]any) error {
	if err := requireID(taskID, "task id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.logActivity(ctx, models.Activity{
		TaskID:      taskID,
		UserID:      actor.ID,
		UserName:    displayName(actor),
		Type:        kind,
		Description: description,
		Metadata:    metadata,
	})
}

// PurgeTask drops every collaboration record of a deleted task except its
// activity log, then records the deletion.
func (s *Service) PurgeTask(ctx context.Context, taskID string, deletedBy models.Actor) error {
	if err := requireID(taskID, "task id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.PurgeTask(ctx, taskID); err != nil {
		return fmt.Errorf("purge task: %w", err)
	}
	if err := s.logActivity(ctx, models.Activity{
		TaskID:      taskID,
		UserID:      deletedBy.ID,
		UserName:    displayName(deletedBy),
		Type:        models.ActivityDeleted,
		Description: "deleted the task",
	}); err != nil {
		return err
	}
	s.logger.Debug("task collaboration purged", "task_id", taskID)
	return nil
}

// ClearUserData removes everything authored by or addressed to userID.
func (s *Service) ClearUserData(ctx context.Context, userID string) error {
	if err := requireID(userID, "user id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.PurgeUser(ctx, userID); err != nil {
		return fmt.Errorf("clear user data: %w", err)
	}
	s.logger.Info("user collaboration data cleared", "user_id", userID)
	return nil
}

// UserTaskIDs returns the ids of tasks on which userID is an accepted collaborator.
func (s *Service) UserTaskIDs(ctx context.Context, userID string) ([]string, error) {
	collaborators, err := s.store.ListCollaborators(ctx, store.CollaboratorFilter{
		UserID: userID,
		Status: models.CollaboratorAccepted,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(collaborators))
	for _, c := range collaborators {
		ids = append(ids, c.TaskID)
	}
	return ids, nil
}
