package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskcollab/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

const invitationColumns = "id, task_id, task_title, inviter_user_id, inviter_name, invitee_email, invitee_user_id, role, message, status, created_at, expires_at, accepted_at"

// CreateInvitation inserts a new invitation.
func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv == nil {
		return fmt.Errorf("invitation is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.TaskID, inv.TaskTitle, inv.InviterUserID, inv.InviterName, inv.InviteeEmail,
		nullIfEmpty(inv.InviteeUserID), string(inv.Role), nullIfEmpty(inv.Message), string(inv.Status),
		formatTime(inv.CreatedAt), formatTime(inv.ExpiresAt), nullTime(inv.AcceptedAt),
	)
	return err
}

// GetInvitation fetches an invitation by id.
func (s *Store) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+invitationColumns+" FROM invitations WHERE id = ?", id)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// UpdateInvitation replaces the mutable fields of an invitation.
func (s *Store) UpdateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv == nil {
		return fmt.Errorf("invitation is required")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitations
		SET invitee_user_id = ?, role = ?, message = ?, status = ?, expires_at = ?, accepted_at = ?
		WHERE id = ?
	`,
		nullIfEmpty(inv.InviteeUserID), string(inv.Role), nullIfEmpty(inv.Message), string(inv.Status),
		formatTime(inv.ExpiresAt), nullTime(inv.AcceptedAt), inv.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListInvitations returns invitations matching the filter in insertion order.
func (s *Store) ListInvitations(ctx context.Context, filter InvitationFilter) ([]models.Invitation, error) {
	var conditions []string
	var args []any
	if filter.TaskID != "" {
		conditions = append(conditions, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.Invitee != "" {
		conditions = append(conditions, "(invitee_user_id = ? OR invitee_email = ?)")
		args = append(args, filter.Invitee, filter.Invitee)
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}
	if filter.ExpiresBefore != nil {
		conditions = append(conditions, "expires_at < ?")
		args = append(args, formatTime(*filter.ExpiresBefore))
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+invitationColumns+" FROM invitations"+whereClause(conditions)+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

const collaboratorColumns = "id, user_id, task_id, role, invited_by, invited_at, accepted_at, status, permissions"

// CreateCollaborator inserts a new collaborator.
func (s *Store) CreateCollaborator(ctx context.Context, collaborator *models.Collaborator) error {
	if collaborator == nil {
		return fmt.Errorf("collaborator is required")
	}
	perms, err := encodeJSON(collaborator.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collaborators (`+collaboratorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		collaborator.ID, collaborator.UserID, collaborator.TaskID, string(collaborator.Role), collaborator.InvitedBy,
		formatTime(collaborator.InvitedAt), nullTime(collaborator.AcceptedAt), string(collaborator.Status), perms,
	)
	return err
}

// GetCollaborator fetches a collaborator by id.
func (s *Store) GetCollaborator(ctx context.Context, id string) (*models.Collaborator, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+collaboratorColumns+" FROM collaborators WHERE id = ?", id)
	collaborator, err := scanCollaborator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return collaborator, err
}

// UpdateCollaborator replaces role, status and permissions together.
func (s *Store) UpdateCollaborator(ctx context.Context, collaborator *models.Collaborator) error {
	if collaborator == nil {
		return fmt.Errorf("collaborator is required")
	}
	perms, err := encodeJSON(collaborator.Permissions)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE collaborators
		SET role = ?, status = ?, accepted_at = ?, permissions = ?
		WHERE id = ?
	`,
		string(collaborator.Role), string(collaborator.Status), nullTime(collaborator.AcceptedAt), perms, collaborator.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListCollaborators returns collaborators matching the filter in insertion order.
func (s *Store) ListCollaborators(ctx context.Context, filter CollaboratorFilter) ([]models.Collaborator, error) {
	var conditions []string
	var args []any
	if filter.TaskID != "" {
		conditions = append(conditions, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+collaboratorColumns+" FROM collaborators"+whereClause(conditions)+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Collaborator, 0)
	for rows.Next() {
		collaborator, err := scanCollaborator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *collaborator)
	}
	return out, rows.Err()
}

const commentColumns = "id, task_id, user_id, user_name, content, type, parent_id, mentions, attachments, reactions, created_at, updated_at, edited_at, is_edited"

// CreateComment inserts a new comment.
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment == nil {
		return fmt.Errorf("comment is required")
	}
	mentions, attachments, reactions, err := encodeCommentCollections(comment)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		comment.ID, comment.TaskID, comment.UserID, comment.UserName, comment.Content, string(comment.Type),
		nullIfEmpty(comment.ParentID), mentions, attachments, reactions,
		formatTime(comment.CreatedAt), formatTime(comment.UpdatedAt), nullTime(comment.EditedAt), boolInt(comment.IsEdited),
	)
	return err
}

// GetComment fetches a comment by id.
func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id)
	comment, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return comment, err
}

// UpdateComment replaces the mutable fields of a comment.
func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if comment == nil {
		return fmt.Errorf("comment is required")
	}
	mentions, attachments, reactions, err := encodeCommentCollections(comment)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE comments
		SET content = ?, mentions = ?, attachments = ?, reactions = ?, updated_at = ?, edited_at = ?, is_edited = ?
		WHERE id = ?
	`,
		comment.Content, mentions, attachments, reactions,
		formatTime(comment.UpdatedAt), nullTime(comment.EditedAt), boolInt(comment.IsEdited), comment.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListComments returns comments matching the filter in insertion order.
func (s *Store) ListComments(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	var conditions []string
	var args []any
	if filter.TaskID != "" {
		conditions = append(conditions, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.ParentID != "" {
		conditions = append(conditions, "parent_id = ?")
		args = append(args, filter.ParentID)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+commentColumns+" FROM comments"+whereClause(conditions)+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *comment)
	}
	return out, rows.Err()
}

// DeleteComments removes the given comments in one statement.
func (s *Store) DeleteComments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id IN ("+placeholders(len(ids))+")", args...)
	return err
}

const reviewColumns = "id, task_id, reviewer_id, reviewer_name, status, rating, feedback, suggestions, created_at, updated_at"

// CreateReview inserts a new review.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	if review == nil {
		return fmt.Errorf("review is required")
	}
	suggestions, err := encodeJSON(nonNilStrings(review.Suggestions))
	if err != nil {
		return err
	}
	var rating any
	if review.Rating != nil {
		rating = *review.Rating
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		review.ID, review.TaskID, review.ReviewerID, review.ReviewerName, string(review.Status), rating,
		review.Feedback, suggestions, formatTime(review.CreatedAt), formatTime(review.UpdatedAt),
	)
	return err
}

// ListReviews returns the reviews of a task in insertion order.
func (s *Store) ListReviews(ctx context.Context, taskID string) ([]models.Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews"
	var args []any
	if taskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, taskID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *review)
	}
	return out, rows.Err()
}

const activityColumns = "id, task_id, user_id, user_name, type, description, metadata, created_at"

// CreateActivity appends an activity record.
func (s *Store) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity == nil {
		return fmt.Errorf("activity is required")
	}
	var metadata any
	if len(activity.Metadata) > 0 {
		encoded, err := encodeJSON(activity.Metadata)
		if err != nil {
			return err
		}
		metadata = encoded
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		activity.ID, activity.TaskID, activity.UserID, activity.UserName, string(activity.Type),
		activity.Description, metadata, formatTime(activity.CreatedAt),
	)
	return err
}

// ListActivities returns the activities of a task in insertion order.
func (s *Store) ListActivities(ctx context.Context, taskID string) ([]models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities"
	var args []any
	if taskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, taskID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *activity)
	}
	return out, rows.Err()
}

const notificationColumns = "id, user_id, type, title, message, task_id, invitation_id, comment_id, read, created_at"

// CreateNotification inserts a new notification.
func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification == nil {
		return fmt.Errorf("notification is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		notification.ID, notification.UserID, string(notification.Type), notification.Title, notification.Message,
		nullIfEmpty(notification.TaskID), nullIfEmpty(notification.InvitationID), nullIfEmpty(notification.CommentID),
		boolInt(notification.Read), formatTime(notification.CreatedAt),
	)
	return err
}

// ListNotifications returns notifications matching the filter in insertion order.
func (s *Store) ListNotifications(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	var conditions []string
	var args []any
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = 0")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+notificationColumns+" FROM notifications"+whereClause(conditions)+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *notification)
	}
	return out, rows.Err()
}

// MarkNotificationRead flags one notification as read and reports whether it exists.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkAllNotificationsRead flags every unread notification of a user and returns the count.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0", userID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// PurgeTask removes all collaboration records of a task except its activity log.
func (s *Store) PurgeTask(ctx context.Context, taskID string) error {
	return s.execInTx(ctx, []string{
		"DELETE FROM invitations WHERE task_id = ?",
		"DELETE FROM collaborators WHERE task_id = ?",
		"DELETE FROM comments WHERE task_id = ?",
		"DELETE FROM reviews WHERE task_id = ?",
		"DELETE FROM notifications WHERE task_id = ?",
	}, taskID)
}

// PurgeUser removes every collaboration record authored by or addressed to a user.
func (s *Store) PurgeUser(ctx context.Context, userID string) error {
	return s.execInTx(ctx, []string{
		"DELETE FROM invitations WHERE inviter_user_id = ?",
		"DELETE FROM collaborators WHERE user_id = ?",
		"DELETE FROM comments WHERE user_id = ?",
		"DELETE FROM reviews WHERE reviewer_id = ?",
		"DELETE FROM activities WHERE user_id = ?",
		"DELETE FROM notifications WHERE user_id = ?",
	}, userID)
}

func (s *Store) execInTx(ctx context.Context, statements []string, arg any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, arg); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func scanInvitation(row scanner) (*models.Invitation, error) {
	var inv models.Invitation
	var inviteeUserID, message, acceptedAt sql.NullString
	var role, status, createdAt, expiresAt string
	if err := row.Scan(
		&inv.ID, &inv.TaskID, &inv.TaskTitle, &inv.InviterUserID, &inv.InviterName, &inv.InviteeEmail,
		&inviteeUserID, &role, &message, &status, &createdAt, &expiresAt, &acceptedAt,
	); err != nil {
		return nil, err
	}
	inv.InviteeUserID = inviteeUserID.String
	inv.Message = message.String
	inv.Role = models.Role(role)
	inv.Status = models.InvitationStatus(status)

	var err error
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if inv.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if inv.AcceptedAt, err = parseNullTime(acceptedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanCollaborator(row scanner) (*models.Collaborator, error) {
	var c models.Collaborator
	var acceptedAt, perms sql.NullString
	var role, status, invitedAt string
	if err := row.Scan(&c.ID, &c.UserID, &c.TaskID, &role, &c.InvitedBy, &invitedAt, &acceptedAt, &status, &perms); err != nil {
		return nil, err
	}
	c.Role = models.Role(role)
	c.Status = models.CollaboratorStatus(status)

	var err error
	if c.InvitedAt, err = parseTime(invitedAt); err != nil {
		return nil, err
	}
	if c.AcceptedAt, err = parseNullTime(acceptedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(perms, &c.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return &c, nil
}

func scanComment(row scanner) (*models.Comment, error) {
	var c models.Comment
	var parentID, mentions, attachments, reactions, editedAt sql.NullString
	var commentType, createdAt, updatedAt string
	var isEdited int
	if err := row.Scan(
		&c.ID, &c.TaskID, &c.UserID, &c.UserName, &c.Content, &commentType, &parentID,
		&mentions, &attachments, &reactions, &createdAt, &updatedAt, &editedAt, &isEdited,
	); err != nil {
		return nil, err
	}
	c.Type = models.CommentType(commentType)
	c.ParentID = parentID.String
	c.IsEdited = isEdited != 0

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.EditedAt, err = parseNullTime(editedAt); err != nil {
		return nil, err
	}

	c.Mentions = []string{}
	c.Attachments = []models.Attachment{}
	c.Reactions = []models.Reaction{}
	if err := decodeJSON(mentions, &c.Mentions); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	if err := decodeJSON(attachments, &c.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := decodeJSON(reactions, &c.Reactions); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	return &c, nil
}

func scanReview(row scanner) (*models.Review, error) {
	var r models.Review
	var rating sql.NullInt64
	var suggestions sql.NullString
	var status, createdAt, updatedAt string
	if err := row.Scan(
		&r.ID, &r.TaskID, &r.ReviewerID, &r.ReviewerName, &status, &rating,
		&r.Feedback, &suggestions, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = models.ReviewStatus(status)
	if rating.Valid {
		value := int(rating.Int64)
		r.Rating = &value
	}

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	r.Suggestions = []string{}
	if err := decodeJSON(suggestions, &r.Suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return &r, nil
}

func scanActivity(row scanner) (*models.Activity, error) {
	var a models.Activity
	var metadata sql.NullString
	var activityType, createdAt string
	if err := row.Scan(&a.ID, &a.TaskID, &a.UserID, &a.UserName, &activityType, &a.Description, &metadata, &createdAt); err != nil {
		return nil, err
	}
	a.Type = models.ActivityType(activityType)

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(metadata, &a.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &a, nil
}

func scanNotification(row scanner) (*models.Notification, error) {
	var n models.Notification
	var taskID, invitationID, commentID sql.NullString
	var notificationType, createdAt string
	var read int
	if err := row.Scan(
		&n.ID, &n.UserID, &notificationType, &n.Title, &n.Message,
		&taskID, &invitationID, &commentID, &read, &createdAt,
	); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(notificationType)
	n.TaskID = taskID.String
	n.InvitationID = invitationID.String
	n.CommentID = commentID.String
	n.Read = read != 0

	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func encodeCommentCollections(comment *models.Comment) (string, string, string, error) {
	mentions, err := encodeJSON(nonNilStrings(comment.Mentions))
	if err != nil {
		return "", "", "", err
	}
	attachments := comment.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	encodedAttachments, err := encodeJSON(attachments)
	if err != nil {
		return "", "", "", err
	}
	reactions := comment.Reactions
	if reactions == nil {
		reactions = []models.Reaction{}
	}
	encodedReactions, err := encodeJSON(reactions)
	if err != nil {
		return "", "", "", err
	}
	return mentions, encodedAttachments, encodedReactions, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
