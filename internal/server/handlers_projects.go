package server

import (
	"net/http"

	"taskcollab/internal/api"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	summaries, err := s.tasks.Projects(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make([]api.ProjectResponse, 0, len(summaries))
	for _, p := range summaries {
		resp = append(resp, api.ProjectResponse{
			Project:        p.Project,
			TaskCount:      p.TaskCount,
			CompletedTasks: p.CompletedTasks,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req api.ProjectRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	project, err := s.tasks.CreateProject(r.Context(), actor, req.Name, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.ProjectRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	project, err := s.tasks.UpdateProject(r.Context(), actor, id, req.Name, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	removed, err := s.tasks.DeleteProject(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProjectDeleteResponse{ID: id, TasksRemoved: removed})
}
