package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	notifications, err := s.collab.UserNotifications(r.Context(), collab.Identities(actor)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	count, err := s.collab.UnreadNotificationsCount(r.Context(), collab.Identities(actor)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: count})
}

// handleMarkRead marks one of the caller's notifications read. Ids that are
// unknown or belong to someone else are ignored.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	notifications, err := s.collab.UserNotifications(r.Context(), collab.Identities(actor)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, n := range notifications {
		if n.ID != id {
			continue
		}
		if err := s.collab.MarkNotificationAsRead(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		break
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	count, err := s.collab.MarkAllNotificationsRead(r.Context(), collab.Identities(actor)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: count})
}

// handleNotificationStream pushes new notifications for the caller as
// server-sent events until the client goes away.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, newHTTPError(http.StatusNotImplemented, ErrCodeNotImplemented, fmt.Errorf("streaming unsupported")))
		return
	}
	if !s.acquireLimiter(s.streamLimiter, w, r, "stream") {
		return
	}
	defer s.releaseLimiter(s.streamLimiter)

	events, cancel := s.hub.Subscribe(collab.Identities(actor)...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	s.log().Debug("notification stream opened", "user_id", actor.ID)
	defer s.log().Debug("notification stream closed", "user_id", actor.ID)

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case n, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				s.log().Error("encode notification event", "notification_id", n.ID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
