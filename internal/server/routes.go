package server

import (
	"net/http"

	"github.com/go-chi/cors"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)
	mux.HandleFunc("GET /v1/me", s.handleMe)
	mux.HandleFunc("DELETE /v1/me/data", s.handleClearMyData)

	// Tasks.
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("GET /v1/tasks/stats", s.handleTaskStats)
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /v1/tasks/{id}/toggle", s.handleToggleTask)

	// Projects.
	mux.HandleFunc("GET /v1/projects", s.handleListProjects)
	mux.HandleFunc("POST /v1/projects", s.handleCreateProject)
	mux.HandleFunc("PATCH /v1/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /v1/projects/{id}", s.handleDeleteProject)

	// Invitations and collaborators.
	mux.HandleFunc("POST /v1/tasks/{id}/invitations", s.handleInvite)
	mux.HandleFunc("GET /v1/invitations", s.handleListInvitations)
	mux.HandleFunc("POST /v1/invitations/expire", s.handleExpireInvitations)
	mux.HandleFunc("POST /v1/invitations/{id}/accept", s.handleAcceptInvitation)
	mux.HandleFunc("POST /v1/invitations/{id}/decline", s.handleDeclineInvitation)
	mux.HandleFunc("GET /v1/tasks/{id}/collaborators", s.handleListCollaborators)
	mux.HandleFunc("PATCH /v1/tasks/{id}/collaborators/{cid}", s.handleUpdateCollaboratorRole)
	mux.HandleFunc("DELETE /v1/tasks/{id}/collaborators/{cid}", s.handleRemoveCollaborator)
	mux.HandleFunc("GET /v1/tasks/{id}/permissions", s.handleTaskPermissions)

	// Comments.
	mux.HandleFunc("GET /v1/tasks/{id}/comments", s.handleListComments)
	mux.HandleFunc("POST /v1/tasks/{id}/comments", s.handleAddComment)
	mux.HandleFunc("PATCH /v1/comments/{id}", s.handleUpdateComment)
	mux.HandleFunc("DELETE /v1/comments/{id}", s.handleDeleteComment)
	mux.HandleFunc("POST /v1/comments/{id}/reactions", s.handleAddReaction)
	mux.HandleFunc("POST /v1/comments/{id}/attachments", s.handleUploadAttachment)
	mux.HandleFunc("POST /v1/comments/{id}/links", s.handleAttachLink)
	mux.HandleFunc("GET /v1/comments/{id}/attachments/{aid}", s.handleAttachmentContent)

	// Reviews and activity.
	mux.HandleFunc("GET /v1/tasks/{id}/reviews", s.handleListReviews)
	mux.HandleFunc("POST /v1/tasks/{id}/reviews", s.handleSubmitReview)
	mux.HandleFunc("POST /v1/tasks/{id}/review-requests", s.handleRequestReview)
	mux.HandleFunc("GET /v1/tasks/{id}/activity", s.handleListActivity)

	// Notifications.
	mux.HandleFunc("GET /v1/notifications", s.handleListNotifications)
	mux.HandleFunc("GET /v1/notifications/unread-count", s.handleUnreadCount)
	mux.HandleFunc("GET /v1/notifications/stream", s.handleNotificationStream)
	mux.HandleFunc("POST /v1/notifications/read-all", s.handleMarkAllRead)
	mux.HandleFunc("POST /v1/notifications/{id}/read", s.handleMarkRead)

	var handler http.Handler = s.withAuth(mux)
	if len(s.allowedOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		})(handler)
	}
	return s.withRequestLogging(handler)
}
