package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"taskcollab/internal/api"
	"taskcollab/internal/collab"
)

const (
	attachmentUploadMaxBody   = 25 << 20 // 25 MiB
	attachmentMultipartMemory = 8 << 20  // 8 MiB
)

// handleUploadAttachment stores the multipart "content" file on one of the
// caller's own comments.
func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.ownComment(r.Context(), actor, id, nil); err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(attachmentUploadMaxBody))
	if err := r.ParseMultipartForm(attachmentMultipartMemory); err != nil {
		s.writeError(w, r, classifyMultipartError(err))
		return
	}
	file, header, err := r.FormFile("content")
	if err != nil {
		s.writeError(w, r, invalid(fmt.Errorf("content is required"), ErrCodeMissingRequired))
		return
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	mediaType := strings.TrimSpace(r.FormValue("media_type"))
	if mediaType == "" {
		mediaType = header.Header.Get("Content-Type")
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		peek, _ := buffered.Peek(512)
		mediaType = http.DetectContentType(peek)
	}

	comment, err := s.collab.AttachFile(r.Context(), id, actor, collab.FileInput{
		Name:      firstNonEmpty(r.FormValue("name"), header.Filename),
		MediaType: mediaType,
		Content:   buffered,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleAttachLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	var req api.LinkAttachmentRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if _, err := s.ownComment(r.Context(), actor, id, nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	comment, err := s.collab.AttachLink(r.Context(), id, actor, req.Name, req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, comment)
}

// handleAttachmentContent streams an uploaded attachment to anyone with
// access to the comment's task.
func (s *Server) handleAttachmentContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r, "id")
	if !ok {
		return
	}
	attachmentID, ok := s.pathIDOrBadRequest(w, r, "aid")
	if !ok {
		return
	}
	comment, err := s.collab.Comment(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.authorizeTask(r.Context(), actor, comment.TaskID, anyAccess, "read attachments"); err != nil {
		s.writeError(w, r, err)
		return
	}

	att, content, err := s.collab.OpenAttachment(r.Context(), id, attachmentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", att.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.Name}))
	if att.Size != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*att.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		s.log().Warn("attachment stream interrupted", "attachment_id", att.ID, "error", err)
	}
}

func classifyMultipartError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return tooLarge()
	}
	return invalid(err, ErrCodeInvalidArgument)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
