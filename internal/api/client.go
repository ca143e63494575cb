package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"taskcollab/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "TASKCOLLAB_HTTP_TIMEOUT"
	apiTokenEnvKey     = "TASKCOLLAB_TOKEN"
)

// Client is a simple HTTP client for the taskcollab API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client. The bearer token defaults to TASKCOLLAB_TOKEN.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// SetToken replaces the bearer token sent with each request.
func (c *Client) SetToken(token string) {
	c.authToken = strings.TrimSpace(token)
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) Me(ctx context.Context) (MeResponse, error) {
	var resp MeResponse
	err := c.do(ctx, http.MethodGet, "/v1/me", nil, nil, &resp)
	return resp, err
}

// ClearMyData removes every collaboration record of the caller.
func (c *Client) ClearMyData(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/me/data", nil, nil, nil)
}

// Tasks.

func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, "/v1/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) ToggleTask(ctx context.Context, id string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/toggle", nil, nil, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// ListTasks accepts the search, priority, project, status and range query keys.
func (c *Client) ListTasks(ctx context.Context, query url.Values) ([]models.Task, error) {
	var resp []models.Task
	err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &resp)
	return resp, err
}

func (c *Client) TaskStats(ctx context.Context) (TaskStatsResponse, error) {
	var resp TaskStatsResponse
	err := c.do(ctx, http.MethodGet, "/v1/tasks/stats", nil, nil, &resp)
	return resp, err
}

// Projects.

func (c *Client) ListProjects(ctx context.Context) ([]ProjectResponse, error) {
	var resp []ProjectResponse
	err := c.do(ctx, http.MethodGet, "/v1/projects", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateProject(ctx context.Context, req ProjectRequest) (models.Project, error) {
	var resp models.Project
	err := c.do(ctx, http.MethodPost, "/v1/projects", nil, req, &resp)
	return resp, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, req ProjectRequest) (models.Project, error) {
	var resp models.Project
	err := c.do(ctx, http.MethodPatch, "/v1/projects/"+url.PathEscape(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) (ProjectDeleteResponse, error) {
	var resp ProjectDeleteResponse
	err := c.do(ctx, http.MethodDelete, "/v1/projects/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

// Invitations and collaborators.

func (c *Client) InviteUser(ctx context.Context, taskID string, req InviteRequest) (models.Invitation, error) {
	var resp models.Invitation
	err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/invitations", nil, req, &resp)
	return resp, err
}

// ListInvitations returns the caller's invitations. An empty status returns all of them.
func (c *Client) ListInvitations(ctx context.Context, status string) ([]models.Invitation, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	var resp []models.Invitation
	err := c.do(ctx, http.MethodGet, "/v1/invitations", query, nil, &resp)
	return resp, err
}

func (c *Client) AcceptInvitation(ctx context.Context, id string) (models.Collaborator, error) {
	var resp models.Collaborator
	err := c.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(id)+"/accept", nil, nil, &resp)
	return resp, err
}

func (c *Client) DeclineInvitation(ctx context.Context, id string) (models.Invitation, error) {
	var resp models.Invitation
	err := c.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(id)+"/decline", nil, nil, &resp)
	return resp, err
}

func (c *Client) ExpireInvitations(ctx context.Context) (ExpireResponse, error) {
	var resp ExpireResponse
	err := c.do(ctx, http.MethodPost, "/v1/invitations/expire", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListCollaborators(ctx context.Context, taskID string) ([]models.Collaborator, error) {
	var resp []models.Collaborator
	err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/collaborators", nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateCollaboratorRole(ctx context.Context, taskID, collaboratorID string, req RoleUpdateRequest) (models.Collaborator, error) {
	var resp models.Collaborator
	err := c.do(ctx, http.MethodPatch, taskPath(taskID)+"/collaborators/"+url.PathEscape(collaboratorID), nil, req, &resp)
	return resp, err
}

func (c *Client) RemoveCollaborator(ctx context.Context, taskID, collaboratorID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(taskID)+"/collaborators/"+url.PathEscape(collaboratorID), nil, nil, nil)
}

func (c *Client) TaskPermissions(ctx context.Context, taskID string) (models.Permissions, error) {
	var resp models.Permissions
	err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/permissions", nil, nil, &resp)
	return resp, err
}

// Comments.

func (c *Client) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var resp []models.Comment
	err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/comments", nil, nil, &resp)
	return resp, err
}

func (c *Client) AddComment(ctx context.Context, taskID string, req CommentCreateRequest) (models.Comment, error) {
	var resp models.Comment
	err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/comments", nil, req, &resp)
	return resp, err
}

func (c *Client) UpdateComment(ctx context.Context, id string, req CommentUpdateRequest) (models.Comment, error) {
	var resp models.Comment
	err := c.do(ctx, http.MethodPatch, "/v1/comments/"+url.PathEscape(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteComment(ctx context.Context, id string) (CommentDeleteResponse, error) {
	var resp CommentDeleteResponse
	err := c.do(ctx, http.MethodDelete, "/v1/comments/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) AddReaction(ctx context.Context, commentID string, req ReactionRequest) (models.Comment, error) {
	var resp models.Comment
	err := c.do(ctx, http.MethodPost, "/v1/comments/"+url.PathEscape(commentID)+"/reactions", nil, req, &resp)
	return resp, err
}

// Reviews and activity.

func (c *Client) ListReviews(ctx context.Context, taskID string) ([]models.Review, error) {
	var resp []models.Review
	err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/reviews", nil, nil, &resp)
	return resp, err
}

func (c *Client) SubmitReview(ctx context.Context, taskID string, req ReviewSubmitRequest) (models.Review, error) {
	var resp models.Review
	err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/reviews", nil, req, &resp)
	return resp, err
}

func (c *Client) RequestReview(ctx context.Context, taskID string, req ReviewRequestRequest) error {
	return c.do(ctx, http.MethodPost, taskPath(taskID)+"/review-requests", nil, req, nil)
}

func (c *Client) ListActivity(ctx context.Context, taskID string) ([]models.Activity, error) {
	var resp []models.Activity
	err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/activity", nil, nil, &resp)
	return resp, err
}

// Notifications.

func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var resp []models.Notification
	err := c.do(ctx, http.MethodGet, "/v1/notifications", nil, nil, &resp)
	return resp, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp CountResponse
	err := c.do(ctx, http.MethodGet, "/v1/notifications/unread-count", nil, nil, &resp)
	return resp.Count, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var resp CountResponse
	err := c.do(ctx, http.MethodPost, "/v1/notifications/read-all", nil, nil, &resp)
	return resp.Count, err
}

// StreamNotifications reads the server-sent event stream until ctx is
// cancelled or the server closes it, calling fn for each notification.
func (c *Client) StreamNotifications(ctx context.Context, fn func(models.Notification)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/notifications/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.setAuthHeader(req)

	// The stream outlives the request timeout of the regular client.
	streaming := &http.Client{Transport: c.http.Transport}
	resp, err := streaming.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "" && data.Len() > 0:
			var n models.Notification
			if err := json.Unmarshal([]byte(data.String()), &n); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			data.Reset()
			fn(n)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

func taskPath(id string) string {
	return "/v1/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
