package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
	"taskcollab/internal/models"
)

// capability selects one permission out of a collaborator's set.
type capability func(models.Permissions) bool

func anyAccess(p models.Permissions) bool  { return p != models.Permissions{} }
func canComment(p models.Permissions) bool { return p.CanComment }
func canInvite(p models.Permissions) bool  { return p.CanInvite }
func canManage(p models.Permissions) bool  { return p.CanDelete }

// authorizeTask loads a task and checks that actor holds the given capability on it.
func (s *Server) authorizeTask(ctx context.Context, actor models.Actor, taskID string, allowed capability, action string) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	perms, err := s.collab.TaskPermissions(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !allowed(perms) {
		return nil, collab.Forbidden("user %s cannot %s on task %s", actor.ID, action, taskID)
	}
	return task, nil
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.InviteRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		s.writeError(w, r, invalid(fmt.Errorf("email is required"), ErrCodeMissingRequired))
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, r, invalid(err, ErrCodeInvalidRole))
		return
	}

	task, err := s.authorizeTask(r.Context(), actor, taskID, canInvite, "invite")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.collab.InviteUserToTask(r.Context(), collab.TaskRef{ID: task.ID, Title: task.Title}, actor, req.Email, role, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	invitations, err := s.collab.UserInvitations(r.Context(), collab.Identities(actor)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filtered := invitations[:0]
		for _, inv := range invitations {
			if string(inv.Status) == status {
				filtered = append(filtered, inv)
			}
		}
		invitations = filtered
	}
	s.writeJSON(w, http.StatusOK, invitations)
}

func (s *Server) handleExpireInvitations(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actorOrUnauthorized(w, r); !ok {
		return
	}
	expired, err := s.collab.ExpireInvitations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ExpireResponse{Expired: expired})
}

// checkInvitee rejects callers the invitation is not addressed to.
// Unknown invitations pass so the service reports their state.
func (s *Server) checkInvitee(ctx context.Context, actor models.Actor, invitationID string) error {
	inv, err := s.collab.Invitation(ctx, invitationID)
	if err != nil {
		if collab.IsKind(err, collab.KindNotFound) {
			return nil
		}
		return err
	}
	for _, identity := range collab.Identities(actor) {
		if identity == inv.InviteeEmail || identity == inv.InviteeUserID {
			return nil
		}
	}
	return collab.Forbidden("invitation %s is not addressed to %s", invitationID, actor.ID)
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if err := s.checkInvitee(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	collaborator, err := s.collab.AcceptInvitation(r.Context(), id, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collaborator)
}

func (s *Server) handleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if err := s.checkInvitee(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.collab.DeclineInvitation(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, taskID, anyAccess, "view collaborators"); err != nil {
		s.writeError(w, r, err)
		return
	}
	collaborators, err := s.collab.TaskCollaborators(r.Context(), taskID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collaborators)
}

func (s *Server) handleUpdateCollaboratorRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	collaboratorID, ok := s.pathIDOrBadRequest(w, r, "cid")
	if !ok {
		return
	}
	var req api.RoleUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, r, invalid(err, ErrCodeInvalidRole))
		return
	}

	if _, err := s.authorizeTask(r.Context(), actor, taskID, canManage, "change roles"); err != nil {
		s.writeError(w, r, err)
		return
	}
	existing, err := s.collab.Collaborator(r.Context(), collaboratorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if existing.TaskID != taskID {
		s.writeError(w, r, collab.NotFound("collaborator not found"))
		return
	}
	collaborator, err := s.collab.UpdateCollaboratorRole(r.Context(), collaboratorID, role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collaborator)
}

func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	collaboratorID, ok := s.pathIDOrBadRequest(w, r, "cid")
	if !ok {
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, taskID, canManage, "remove collaborators"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.collab.RemoveCollaborator(r.Context(), taskID, collaboratorID, actor); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	perms, err := s.collab.TaskPermissions(r.Context(), taskID, actor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, perms)
}
