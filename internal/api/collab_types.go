package api

// InviteRequest defines the payload for inviting a user to a task.
type InviteRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message,omitempty"`
}

// RoleUpdateRequest changes a collaborator role.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

// CommentCreateRequest defines the payload for adding a comment.
type CommentCreateRequest struct {
	Content  string   `json:"content"`
	Type     string   `json:"type,omitempty"`
	ParentID string   `json:"parent_id,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

// CommentUpdateRequest replaces a comment body.
type CommentUpdateRequest struct {
	Content string `json:"content"`
}

// CommentDeleteResponse lists the comment ids removed by a delete.
type CommentDeleteResponse struct {
	Deleted []string `json:"deleted"`
}

// ReactionRequest adds an emoji reaction.
type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

// ReviewSubmitRequest defines the payload for submitting a review.
type ReviewSubmitRequest struct {
	Status      string   `json:"status"`
	Feedback    string   `json:"feedback,omitempty"`
	Rating      *int     `json:"rating,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ReviewRequestRequest asks a user to review a task.
type ReviewRequestRequest struct {
	ReviewerID string `json:"reviewer_id"`
}

// ExpireResponse reports how many invitations a sweep expired.
type ExpireResponse struct {
	Expired int `json:"expired"`
}

// LinkAttachmentRequest attaches an external link to a comment.
type LinkAttachmentRequest struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}
