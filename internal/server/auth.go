package server

import (
	"fmt"
	"net/http"

	"taskcollab/internal/authn"
	"taskcollab/internal/models"
)

// withAuth resolves the bearer token into an actor for every route except /health.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := authn.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			s.writeError(w, r, unauthorized(fmt.Errorf("missing bearer token")))
			return
		}
		claims, err := s.signer.Verify(raw)
		if err != nil {
			s.writeError(w, r, unauthorized(err))
			return
		}
		actor := claims.Actor()
		if info := requestInfoFrom(r.Context()); info != nil {
			info.userID = actor.ID
		}
		next.ServeHTTP(w, r.WithContext(authn.WithActor(r.Context(), actor)))
	})
}

// actorOrUnauthorized returns the caller or writes a 401.
func (s *Server) actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := authn.ActorFromContext(r.Context())
	if !ok || actor.ID == "" {
		s.writeError(w, r, unauthorized(fmt.Errorf("authentication required")))
		return models.Actor{}, false
	}
	return actor, true
}
