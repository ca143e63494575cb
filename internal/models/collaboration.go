package models

import "time"

// Collaborator pairs a user with a task under a role.
type Collaborator struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	TaskID      string             `json:"task_id"`
	Role        Role               `json:"role"`
	InvitedBy   string             `json:"invited_by"`
	InvitedAt   time.Time          `json:"invited_at"`
	AcceptedAt  *time.Time         `json:"accepted_at,omitempty"`
	Status      CollaboratorStatus `json:"status"`
	Permissions Permissions        `json:"permissions"`
}

// Invitation is a pending offer of a role on a task.
type Invitation struct {
	ID            string           `json:"id"`
	TaskID        string           `json:"task_id"`
	TaskTitle     string           `json:"task_title"`
	InviterUserID string           `json:"inviter_user_id"`
	InviterName   string           `json:"inviter_name"`
	InviteeEmail  string           `json:"invitee_email"`
	InviteeUserID string           `json:"invitee_user_id,omitempty"`
	Role          Role             `json:"role"`
	Message       string           `json:"message,omitempty"`
	Status        InvitationStatus `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
	AcceptedAt    *time.Time       `json:"accepted_at,omitempty"`
}

// Expired reports whether the invitation is past its expiry at now.
func (i Invitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Comment is a message on a task, optionally replying to another comment.
type Comment struct {
	ID          string       `json:"id"`
	TaskID      string       `json:"task_id"`
	UserID      string       `json:"user_id"`
	UserName    string       `json:"user_name"`
	Content     string       `json:"content"`
	Type        CommentType  `json:"type"`
	ParentID    string       `json:"parent_id,omitempty"`
	Mentions    []string     `json:"mentions"`
	Attachments []Attachment `json:"attachments"`
	Reactions   []Reaction   `json:"reactions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	EditedAt    *time.Time   `json:"edited_at,omitempty"`
	IsEdited    bool         `json:"is_edited"`
}

// Reaction is a single user's emoji on a comment.
type Reaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment references an uploaded file or link on a comment.
type Attachment struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	URL        string         `json:"url"`
	Type       AttachmentType `json:"type"`
	MediaType  string         `json:"media_type,omitempty"`
	Size       *int64         `json:"size,omitempty"`
	BlobKey    string         `json:"blob_key,omitempty"`
	UploadedBy string         `json:"uploaded_by"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// Review is an append-only verdict on a task.
type Review struct {
	ID           string       `json:"id"`
	TaskID       string       `json:"task_id"`
	ReviewerID   string       `json:"reviewer_id"`
	ReviewerName string       `json:"reviewer_name"`
	Status       ReviewStatus `json:"status"`
	Rating       *int         `json:"rating,omitempty"`
	Feedback     string       `json:"feedback"`
	Suggestions  []string     `json:"suggestions"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Activity is an immutable audit record.
type Activity struct {
	ID          string         `json:"id"`
	TaskID      string         `json:"task_id"`
	UserID      string         `json:"user_id"`
	UserName    string         `json:"user_name"`
	Type        ActivityType   `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Notification is a per-user inbox entry.
type Notification struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	TaskID       string           `json:"task_id,omitempty"`
	InvitationID string           `json:"invitation_id,omitempty"`
	CommentID    string           `json:"comment_id,omitempty"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"created_at"`
}
