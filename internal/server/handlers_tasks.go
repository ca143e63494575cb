package server

import (
	"fmt"
	"net/http"
	"strings"

	"taskcollab/internal/api"
	"taskcollab/internal/models"
	"taskcollab/internal/tasks"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	input := tasks.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   strings.TrimSpace(req.ProjectID),
	}
	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, r, invalid(fmt.Errorf("title is required"), ErrCodeMissingRequired))
		return
	}
	if req.Priority != "" {
		priority, err := models.ParseTaskPriority(req.Priority)
		if err != nil {
			s.writeError(w, r, invalid(err, ErrCodeInvalidPriority))
			return
		}
		input.Priority = priority
	}
	if req.Status != "" {
		status, err := models.ParseTaskStatus(req.Status)
		if err != nil {
			s.writeError(w, r, invalid(err, ErrCodeInvalidStatus))
			return
		}
		input.Status = status
	}
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		input.DueDate = &due
	}

	task, err := s.tasks.Create(r.Context(), actor, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	task, err := s.tasks.Get(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.TaskUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	input, err := buildUpdateInput(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.Update(r.Context(), actor, id, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func buildUpdateInput(req api.TaskUpdateRequest) (tasks.UpdateInput, error) {
	input := tasks.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
	}
	if req.Priority != nil {
		priority, err := models.ParseTaskPriority(*req.Priority)
		if err != nil {
			return input, invalid(err, ErrCodeInvalidPriority)
		}
		input.Priority = &priority
	}
	if req.Status != nil {
		status, err := models.ParseTaskStatus(*req.Status)
		if err != nil {
			return input, invalid(err, ErrCodeInvalidStatus)
		}
		input.Status = &status
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			input.ClearDueDate = true
		} else {
			due, err := parseFlexibleTime(*req.DueDate)
			if err != nil {
				return input, err
			}
			input.DueDate = &due
		}
	}
	return input, nil
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	task, err := s.tasks.Toggle(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if err := s.tasks.Delete(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	filter, err := parseTaskFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.tasks.List(r.Context(), actor, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func parseTaskFilter(r *http.Request) (tasks.Filter, error) {
	q := r.URL.Query()
	filter := tasks.Filter{
		Search:    strings.TrimSpace(q.Get("search")),
		ProjectID: strings.TrimSpace(q.Get("project")),
	}
	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		priority, err := models.ParseTaskPriority(raw)
		if err != nil {
			return filter, invalid(err, ErrCodeInvalidPriority)
		}
		filter.Priority = priority
	}
	status, err := tasks.ParseStatusFilter(q.Get("status"))
	if err != nil {
		return filter, invalid(err, ErrCodeInvalidQuery)
	}
	filter.Status = status
	dateRange, err := tasks.ParseDateRange(q.Get("range"))
	if err != nil {
		return filter, invalid(err, ErrCodeInvalidTimeFilter)
	}
	filter.DateRange = dateRange
	return filter, nil
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	stats, err := s.tasks.Stats(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskStatsResponse{
		Total:     stats.Total,
		Completed: stats.Completed,
		Pending:   stats.Pending,
	})
}

