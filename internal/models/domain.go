package models

import (
	"fmt"
	"strings"
	"time"
)

// Role defines the access level a collaborator holds on a task.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleEditor   Role = "editor"
	RoleReviewer Role = "reviewer"
	RoleViewer   Role = "viewer"
)

// CollaboratorStatus defines collaborator membership states.
type CollaboratorStatus string

const (
	CollaboratorPending  CollaboratorStatus = "pending"
	CollaboratorAccepted CollaboratorStatus = "accepted"
	CollaboratorDeclined CollaboratorStatus = "declined"
)

// InvitationStatus defines the invitation lifecycle states.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// CommentType defines comment kinds.
type CommentType string

const (
	CommentTypeComment CommentType = "comment"
	CommentTypeReview  CommentType = "review"
	CommentTypeSystem  CommentType = "system"
)

// ReviewStatus defines review outcomes.
type ReviewStatus string

const (
	ReviewPending          ReviewStatus = "pending"
	ReviewApproved         ReviewStatus = "approved"
	ReviewRejected         ReviewStatus = "rejected"
	ReviewChangesRequested ReviewStatus = "changes_requested"
)

// ActivityType defines audit record kinds.
type ActivityType string

const (
	ActivityCreated         ActivityType = "created"
	ActivityUpdated         ActivityType = "updated"
	ActivityCompleted       ActivityType = "completed"
	ActivityCommented       ActivityType = "commented"
	ActivityInvited         ActivityType = "invited"
	ActivityJoined          ActivityType = "joined"
	ActivityLeft            ActivityType = "left"
	ActivityStatusChanged   ActivityType = "status_changed"
	ActivityPriorityChanged ActivityType = "priority_changed"
	ActivityDueDateChanged  ActivityType = "due_date_changed"
	ActivityDeleted         ActivityType = "deleted"
)

// NotificationType defines inbox entry kinds.
type NotificationType string

const (
	NotificationTaskInvitation  NotificationType = "task_invitation"
	NotificationCommentMention  NotificationType = "comment_mention"
	NotificationTaskUpdated     NotificationType = "task_updated"
	NotificationReviewRequested NotificationType = "review_requested"
	NotificationReviewCompleted NotificationType = "review_completed"
)

// AttachmentType defines comment attachment kinds.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentDocument AttachmentType = "document"
	AttachmentLink     AttachmentType = "link"
)

const (
	InvitationTTL = 7 * 24 * time.Hour

	RatingMin = 1
	RatingMax = 5
)

var validRoles = map[Role]struct{}{
	RoleOwner:    {},
	RoleEditor:   {},
	RoleReviewer: {},
	RoleViewer:   {},
}

var validCommentTypes = map[CommentType]struct{}{
	CommentTypeComment: {},
	CommentTypeReview:  {},
	CommentTypeSystem:  {},
}

var validReviewStatuses = map[ReviewStatus]struct{}{
	ReviewPending:          {},
	ReviewApproved:         {},
	ReviewRejected:         {},
	ReviewChangesRequested: {},
}

func IsValidRole(role Role) bool {
	_, ok := validRoles[role]
	return ok
}

func IsValidCommentType(kind CommentType) bool {
	_, ok := validCommentTypes[kind]
	return ok
}

func IsValidReviewStatus(status ReviewStatus) bool {
	_, ok := validReviewStatuses[status]
	return ok
}

func IsValidRating(value int) bool {
	return value >= RatingMin && value <= RatingMax
}

func ParseRole(raw string) (Role, error) {
	value := Role(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("role is required")
	}
	if !IsValidRole(value) {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return value, nil
}

func ParseCommentType(raw string) (CommentType, error) {
	value := CommentType(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return CommentTypeComment, nil
	}
	if !IsValidCommentType(value) {
		return "", fmt.Errorf("invalid comment type: %s", value)
	}
	return value, nil
}

func ParseReviewStatus(raw string) (ReviewStatus, error) {
	value := ReviewStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("review status is required")
	}
	if !IsValidReviewStatus(value) {
		return "", fmt.Errorf("invalid review status: %s", value)
	}
	return value, nil
}

// Roles returns every assignable role in descending order of access.
func Roles() []Role {
	return []Role{RoleOwner, RoleEditor, RoleReviewer, RoleViewer}
}
