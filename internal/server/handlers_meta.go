package server

import (
	"net/http"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
	"taskcollab/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		SchemaVersion: store.SchemaVersion(),
		Store:         s.storeKind,
		Version:       s.version,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, api.MeResponse{
		ID:         actor.ID,
		Name:       actor.Name,
		Email:      actor.Email,
		Identities: collab.Identities(actor),
	})
}

func (s *Server) handleClearMyData(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	for _, identity := range collab.Identities(actor) {
		if err := s.collab.ClearUserData(r.Context(), identity); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
