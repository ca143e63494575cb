package server

import (
	"context"
	"net/http"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
	"taskcollab/internal/models"
)

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, taskID, anyAccess, "view comments"); err != nil {
		s.writeError(w, r, err)
		return
	}
	comments, err := s.collab.TaskComments(r.Context(), taskID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.CommentCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	kind, err := models.ParseCommentType(req.Type)
	if err != nil {
		s.writeError(w, r, invalid(err, ErrCodeInvalidArgument))
		return
	}

	if _, err := s.authorizeTask(r.Context(), actor, taskID, canComment, "comment"); err != nil {
		s.writeError(w, r, err)
		return
	}
	comment, err := s.collab.AddComment(r.Context(), taskID, actor, collab.CommentInput{
		Content:  req.Content,
		Type:     kind,
		ParentID: req.ParentID,
		Mentions: req.Mentions,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, comment)
}

// ownComment loads a comment and requires actor to be its author, or to hold
// fallback on the comment's task when fallback is non-nil.
func (s *Server) ownComment(ctx context.Context, actor models.Actor, commentID string, fallback capability) (*models.Comment, error) {
	comment, err := s.collab.Comment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID == actor.ID {
		return comment, nil
	}
	if fallback != nil {
		perms, err := s.collab.TaskPermissions(ctx, comment.TaskID, actor.ID)
		if err != nil {
			return nil, err
		}
		if fallback(perms) {
			return comment, nil
		}
	}
	return nil, collab.Forbidden("comment %s belongs to another user", commentID)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.CommentUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if _, err := s.ownComment(r.Context(), actor, id, nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	comment, err := s.collab.UpdateComment(r.Context(), id, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.ownComment(r.Context(), actor, id, canManage); err != nil {
		if collab.IsKind(err, collab.KindNotFound) {
			s.writeJSON(w, http.StatusOK, api.CommentDeleteResponse{Deleted: []string{}})
			return
		}
		s.writeError(w, r, err)
		return
	}
	deleted, err := s.collab.DeleteComment(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.CommentDeleteResponse{Deleted: deleted})
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.ReactionRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	existing, err := s.collab.Comment(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, existing.TaskID, canComment, "react"); err != nil {
		s.writeError(w, r, err)
		return
	}
	comment, err := s.collab.AddReaction(r.Context(), id, actor, req.Emoji)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, comment)
}
