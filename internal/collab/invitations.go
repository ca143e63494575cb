package collab

import (
	"context"
	"fmt"
	"strings"

	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// InviteUserToTask creates a pending invitation and notifies the invitee by raw email.
func (s *Service) InviteUserToTask(ctx context.Context, task TaskRef, inviter models.Actor, inviteeEmail string, role models.Role, message string) (*models.Invitation, error) {
	if err := requireID(task.ID, "task id"); err != nil {
		return nil, err
	}
	if err := requireActor(inviter); err != nil {
		return nil, err
	}
	inviteeEmail = normalizeEmail(inviteeEmail)
	if inviteeEmail == "" {
		return nil, InvalidArgument("invitee email is required")
	}
	if !models.IsValidRole(role) {
		return nil, InvalidArgument("invalid role: %s", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := store.GenerateID(store.PrefixInvitation)
	if err != nil {
		return nil, err
	}
	now := s.now()
	inv := &models.Invitation{
		ID:            id,
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		InviterUserID: inviter.ID,
		InviterName:   displayName(inviter),
		InviteeEmail:  inviteeEmail,
		Role:          role,
		Message:       strings.TrimSpace(message),
		Status:        models.InvitationPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.invitationTTL),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	if err := s.notify(ctx, models.Notification{
		UserID:       inviteeEmail,
		Type:         models.NotificationTaskInvitation,
		Title:        "Task Invitation",
		Message:      fmt.Sprintf(`%s invited you to collaborate on "%s"`, inv.InviterName, task.Title),
		TaskID:       task.ID,
		InvitationID: inv.ID,
	}); err != nil {
		return nil, err
	}

	if err := s.logActivity(ctx, models.Activity{
		TaskID:      task.ID,
		UserID:      inviter.ID,
		UserName:    inv.InviterName,
		Type:        models.ActivityInvited,
		Description: fmt.Sprintf("invited %s as %s", inviteeEmail, role),
		Metadata:    map[string]any{"invitation_id": inv.ID, "role": string(role)},
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("invitation created", "invitation_id", inv.ID, "task_id", task.ID, "role", role)
	return inv, nil
}

// AcceptInvitation turns a pending invitation into an accepted collaborator.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID string, user models.Actor) (*models.Collaborator, error) {
	if err := requireActor(user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.Status != models.InvitationPending {
		return nil, InvalidState("invalid or expired invitation")
	}

	now := s.now()
	if inv.Expired(now) {
		inv.Status = models.InvitationExpired
		if err := s.store.UpdateInvitation(ctx, inv); err != nil {
			return nil, fmt.Errorf("expire invitation: %w", err)
		}
		s.logger.Debug("invitation expired on accept", "invitation_id", inv.ID)
		return nil, InvalidState("invalid or expired invitation")
	}

	existing, err := s.acceptedCollaborator(ctx, inv.TaskID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, InvalidState("user %s already collaborates on task %s", user.ID, inv.TaskID)
	}

	collaboratorID, err := store.GenerateID(store.PrefixCollaborator)
	if err != nil {
		return nil, err
	}
	acceptedAt := now
	collaborator := &models.Collaborator{
		ID:          collaboratorID,
		UserID:      user.ID,
		TaskID:      inv.TaskID,
		Role:        inv.Role,
		InvitedBy:   inv.InviterUserID,
		InvitedAt:   inv.CreatedAt,
		AcceptedAt:  &acceptedAt,
		Status:      models.CollaboratorAccepted,
		Permissions: models.DeriveCapabilities(inv.Role),
	}
	if err := s.store.CreateCollaborator(ctx, collaborator); err != nil {
		return nil, fmt.Errorf("create collaborator: %w", err)
	}

	inv.Status = models.InvitationAccepted
	inv.AcceptedAt = &acceptedAt
	inv.InviteeUserID = user.ID
	if err := s.store.UpdateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}

	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = emailLocalPart(inv.InviteeEmail)
	}
	if err := s.logActivity(ctx, models.Activity{
		TaskID:      inv.TaskID,
		UserID:      user.ID,
		UserName:    name,
		Type:        models.ActivityJoined,
		Description: fmt.Sprintf("joined as %s", inv.Role),
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("invitation accepted", "invitation_id", inv.ID, "collaborator_id", collaborator.ID)
	return collaborator, nil
}

// DeclineInvitation marks a pending invitation declined.
func (s *Service) DeclineInvitation(ctx context.Context, invitationID string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NotFound("invitation not found")
	}
	if inv.Status != models.InvitationPending {
		return nil, InvalidState("invitation is %s", inv.Status)
	}

	inv.Status = models.InvitationDeclined
	if err := s.store.UpdateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("decline invitation: %w", err)
	}
	s.logger.Debug("invitation declined", "invitation_id", inv.ID)
	return inv, nil
}

// ExpireInvitations marks every pending invitation past its expiry as expired.
func (s *Service) ExpireInvitations(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stale, err := s.store.ListInvitations(ctx, store.InvitationFilter{
		Statuses:      []models.InvitationStatus{models.InvitationPending},
		ExpiresBefore: &now,
	})
	if err != nil {
		return 0, err
	}
	for i := range stale {
		stale[i].Status = models.InvitationExpired
		if err := s.store.UpdateInvitation(ctx, &stale[i]); err != nil {
			return i, fmt.Errorf("expire invitation %s: %w", stale[i].ID, err)
		}
	}
	if len(stale) > 0 {
		s.logger.Info("expired invitations", "count", len(stale))
	}
	return len(stale), nil
}

// RemoveCollaborator soft-removes a collaborator by marking it declined.
func (s *Service) RemoveCollaborator(ctx context.Context, taskID, collaboratorID string, removedBy models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collaborator, err := s.store.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return err
	}
	if collaborator == nil || (taskID != "" && collaborator.TaskID != taskID) {
		return NotFound("collaborator not found")
	}

	collaborator.Status = models.CollaboratorDeclined
	if err := s.store.UpdateCollaborator(ctx, collaborator); err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}

	if err := s.logActivity(ctx, models.Activity{
		TaskID:      collaborator.TaskID,
		UserID:      removedBy.ID,
		UserName:    displayName(removedBy),
		Type:        models.ActivityLeft,
		Description: fmt.Sprintf("removed %s from the task", collaborator.UserID),
	}); err != nil {
		return err
	}
	s.logger.Debug("collaborator removed", "collaborator_id", collaborator.ID, "task_id", collaborator.TaskID)
	return nil
}

// UpdateCollaboratorRole replaces the role and recomputes the full permission set.
func (s *Service) UpdateCollaboratorRole(ctx context.Context, collaboratorID string, role models.Role) (*models.Collaborator, error) {
	if !models.IsValidRole(role) {
		return nil, InvalidArgument("invalid role: %s", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collaborator, err := s.store.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	if collaborator == nil {
		return nil, NotFound("collaborator not found")
	}

	collaborator.Role = role
	collaborator.Permissions = models.DeriveCapabilities(role)
	if err := s.store.UpdateCollaborator(ctx, collaborator); err != nil {
		return nil, fmt.Errorf("update collaborator role: %w", err)
	}
	s.logger.Debug("collaborator role updated", "collaborator_id", collaborator.ID, "role", role)
	return collaborator, nil
}

func (s *Service) acceptedCollaborator(ctx context.Context, taskID, userID string) (*models.Collaborator, error) {
	collaborators, err := s.store.ListCollaborators(ctx, store.CollaboratorFilter{
		TaskID: taskID,
		UserID: userID,
		Status: models.CollaboratorAccepted,
	})
	if err != nil {
		return nil, err
	}
	if len(collaborators) == 0 {
		return nil, nil
	}
	return &collaborators[0], nil
}
