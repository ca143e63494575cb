package collab

import (
	"context"
	"fmt"
	"strings"

	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// ReviewInput carries the fields of a submitted review.
type ReviewInput struct {
	Status      models.ReviewStatus
	Feedback    string
	Rating      *int
	Suggestions []string
}

// SubmitReview appends a review and notifies every other accepted collaborator.
// Callers gate who may review; no capability check happens here.
func (s *Service) SubmitReview(ctx context.Context, taskID string, reviewer models.Actor, input ReviewInput) (*models.Review, error) {
	if err := requireID(taskID, "task id"); err != nil {
		return nil, err
	}
	if err := requireActor(reviewer); err != nil {
		return nil, err
	}
	if !models.IsValidReviewStatus(input.Status) {
		return nil, InvalidArgument("invalid review status: %s", input.Status)
	}
	if input.Rating != nil && !models.IsValidRating(*input.Rating) {
		return nil, InvalidArgument("rating must be between %d and %d", models.RatingMin, models.RatingMax)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := store.GenerateID(store.PrefixReview)
	if err != nil {
		return nil, err
	}
	now := s.now()
	name := displayName(reviewer)
	suggestions := make([]string, 0, len(input.Suggestions))
	for _, suggestion := range input.Suggestions {
		if trimmed := strings.TrimSpace(suggestion); trimmed != "" {
			suggestions = append(suggestions, trimmed)
		}
	}
	var rating *int
	if input.Rating != nil {
		value := *input.Rating
		rating = &value
	}
	review := &models.Review{
		ID:           id,
		TaskID:       taskID,
		ReviewerID:   reviewer.ID,
		ReviewerName: name,
		Status:       input.Status,
		Rating:       rating,
		Feedback:     strings.TrimSpace(input.Feedback),
		Suggestions:  suggestions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	collaborators, err := s.store.ListCollaborators(ctx, store.CollaboratorFilter{
		TaskID: taskID,
		Status: models.CollaboratorAccepted,
	})
	if err != nil {
		return nil, err
	}
	for _, collaborator := range collaborators {
		if collaborator.UserID == reviewer.ID {
			continue
		}
		if err := s.notify(ctx, models.Notification{
			UserID:  collaborator.UserID,
			Type:    models.NotificationReviewCompleted,
			Title:   "Review Completed",
			Message: fmt.Sprintf("%s completed a review for the task", name),
			TaskID:  taskID,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.logActivity(ctx, models.Activity{
		TaskID:      taskID,
		UserID:      reviewer.ID,
		UserName:    name,
		Type:        models.ActivityCommented,
		Description: fmt.Sprintf("submitted a %s review", input.Status),
		Metadata:    map[string]any{"review_id": review.ID, "status": string(input.Status)},
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("review submitted", "review_id", review.ID, "task_id", taskID, "status", input.Status)
	return review, nil
}

// RequestReview notifies reviewerID that requester wants a review. No review record is created.
func (s *Service) RequestReview(ctx context.Context, taskID string, requester models.Actor, reviewerID string) error {
	if err := requireID(taskID, "task id"); err != nil {
		return err
	}
	if err := requireActor(requester); err != nil {
		return err
	}
	if err := requireID(reviewerID, "reviewer id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := displayName(requester)
	if err := s.notify(ctx, models.Notification{
		UserID:  reviewerID,
		Type:    models.NotificationReviewRequested,
		Title:   "Review Requested",
		Message: fmt.Sprintf("%s requested your review on a task", name),
		TaskID:  taskID,
	}); err != nil {
		return err
	}

	if err := s.logActivity(ctx, models.Activity{
		TaskID:      taskID,
		UserID:      requester.ID,
		UserName:    name,
		Type:        models.ActivityCommented,
		Description: "requested a review",
		Metadata:    map[string]any{"reviewer_id": reviewerID},
	}); err != nil {
		return err
	}
	s.logger.Debug("review requested", "task_id", taskID, "reviewer_id", reviewerID)
	return nil
}
