package server

import (
	"fmt"
	"net/http"
	"strings"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
	"taskcollab/internal/models"
)

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, taskID, anyAccess, "view reviews"); err != nil {
		s.writeError(w, r, err)
		return
	}
	reviews, err := s.collab.TaskReviews(r.Context(), taskID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.ReviewSubmitRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	status, err := models.ParseReviewStatus(req.Status)
	if err != nil {
		s.writeError(w, r, invalid(err, ErrCodeInvalidStatus))
		return
	}
	if req.Rating != nil && !models.IsValidRating(*req.Rating) {
		s.writeError(w, r, invalid(fmt.Errorf("rating must be between 1 and 5"), ErrCodeInvalidArgument))
		return
	}

	if _, err := s.authorizeTask(r.Context(), actor, taskID, canComment, "review"); err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.collab.SubmitReview(r.Context(), taskID, actor, collab.ReviewInput{
		Status:      status,
		Feedback:    req.Feedback,
		Rating:      req.Rating,
		Suggestions: req.Suggestions,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleRequestReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.ReviewRequestRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ReviewerID) == "" {
		s.writeError(w, r, invalid(fmt.Errorf("reviewer_id is required"), ErrCodeMissingRequired))
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, taskID, canComment, "request reviews"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.collab.RequestReview(r.Context(), taskID, actor, strings.TrimSpace(req.ReviewerID)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, taskID, anyAccess, "view activity"); err != nil {
		s.writeError(w, r, err)
		return
	}
	activities, err := s.collab.TaskActivities(r.Context(), taskID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, activities)
}
