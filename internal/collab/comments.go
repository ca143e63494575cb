package collab

import (
	"context"
	"fmt"
	"strings"

	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// CommentInput carries the fields of a new comment.
type CommentInput struct {
	Content  string
	Type     models.CommentType
	ParentID string
	Mentions []string
}

// AddComment appends a comment, notifies each mentioned user once and logs the activity.
func (s *Service) AddComment(ctx context.Context, taskID string, author models.Actor, input CommentInput) (*models.Comment, error) {
	if err := requireID(taskID, "task id"); err != nil {
		return nil, err
	}
	if err := requireActor(author); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, InvalidArgument("content is required")
	}
	commentType := input.Type
	if commentType == "" {
		commentType = models.CommentTypeComment
	}
	if !models.IsValidCommentType(commentType) {
		return nil, InvalidArgument("invalid comment type: %s", commentType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parentID := strings.TrimSpace(input.ParentID)
	if parentID != "" {
		parent, err := s.store.GetComment(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.TaskID != taskID {
			return nil, NotFound("parent comment not found")
		}
	}

	id, err := store.GenerateID(store.PrefixComment)
	if err != nil {
		return nil, err
	}
	now := s.now()
	name := displayName(author)
	comment := &models.Comment{
		ID:          id,
		TaskID:      taskID,
		UserID:      author.ID,
		UserName:    name,
		Content:     content,
		Type:        commentType,
		ParentID:    parentID,
		Mentions:    uniqueNonEmpty(input.Mentions),
		Attachments: []models.Attachment{},
		Reactions:   []models.Reaction{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	for _, mentioned := range comment.Mentions {
		if err := s.notify(ctx, models.Notification{
			UserID:    mentioned,
			Type:      models.NotificationCommentMention,
			Title:     "You were mentioned",
			Message:   fmt.Sprintf("%s mentioned you in a comment", name),
			TaskID:    taskID,
			CommentID: comment.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.logActivity(ctx, models.Activity{
		TaskID:      taskID,
		UserID:      author.ID,
		UserName:    name,
		Type:        models.ActivityCommented,
		Description: "added a comment",
		Metadata:    map[string]any{"comment_id": comment.ID},
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("comment added", "comment_id", comment.ID, "task_id", taskID, "mentions", len(comment.Mentions))
	return comment, nil
}

// UpdateComment replaces the body of a comment and marks it edited.
func (s *Service) UpdateComment(ctx context.Context, commentID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, InvalidArgument("content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, NotFound("comment not found")
	}

	now := s.now()
	comment.Content = content
	comment.UpdatedAt = now
	comment.EditedAt = &now
	comment.IsEdited = true
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	s.logger.Debug("comment updated", "comment_id", comment.ID)
	return comment, nil
}

// DeleteComment hard-deletes a comment together with every reply beneath it.
// It returns the ids removed; a missing comment removes nothing.
func (s *Service) DeleteComment(ctx context.Context, commentID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, nil
	}

	siblings, err := s.store.ListComments(ctx, store.CommentFilter{TaskID: comment.TaskID})
	if err != nil {
		return nil, err
	}
	ids := descendantIDs(comment.ID, siblings)
	if err := s.store.DeleteComments(ctx, ids); err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}
	s.logger.Debug("comment deleted", "comment_id", comment.ID, "removed", len(ids))
	return ids, nil
}

// AddReaction records emoji from user on a comment, replacing that user's previous reaction.
func (s *Service) AddReaction(ctx context.Context, commentID string, user models.Actor, emoji string) (*models.Comment, error) {
	if err := requireActor(user); err != nil {
		return nil, err
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, InvalidArgument("emoji is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, NotFound("comment not found")
	}

	id, err := store.GenerateID(store.PrefixReaction)
	if err != nil {
		return nil, err
	}
	reactions := make([]models.Reaction, 0, len(comment.Reactions)+1)
	for _, r := range comment.Reactions {
		if r.UserID != user.ID {
			reactions = append(reactions, r)
		}
	}
	reactions = append(reactions, models.Reaction{
		ID:        id,
		UserID:    user.ID,
		UserName:  displayName(user),
		Emoji:     emoji,
		CreatedAt: s.now(),
	})
	comment.Reactions = reactions
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add reaction: %w", err)
	}
	s.logger.Debug("reaction added", "comment_id", comment.ID, "user_id", user.ID)
	return comment, nil
}

// descendantIDs returns rootID followed by every comment that transitively replies to it.
func descendantIDs(rootID string, comments []models.Comment) []string {
	children := make(map[string][]string, len(comments))
	for _, c := range comments {
		if c.ParentID != "" {
			children[c.ParentID] = append(children[c.ParentID], c.ID)
		}
	}

	ids := []string{rootID}
	seen := map[string]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids
}

func uniqueNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
