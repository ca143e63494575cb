package collab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"taskcollab/internal/blobstore"
	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// FileInput describes an uploaded attachment.
type FileInput struct {
	Name      string
	MediaType string
	Content   io.Reader
}

// AttachLink adds a link attachment to a comment. Only http and https URLs are accepted.
func (s *Service) AttachLink(ctx context.Context, commentID string, uploader models.Actor, name, rawURL string) (*models.Comment, error) {
	if err := requireActor(uploader); err != nil {
		return nil, err
	}
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, InvalidArgument("link url must be an absolute http(s) url")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = parsed.Host
	}

	return s.appendAttachment(ctx, commentID, models.Attachment{
		Name:       name,
		URL:        rawURL,
		Type:       models.AttachmentLink,
		UploadedBy: uploader.ID,
	})
}

// AttachFile stores content in the blob store and adds it to a comment.
// Image media types become image attachments, everything else a document.
func (s *Service) AttachFile(ctx context.Context, commentID string, uploader models.Actor, in FileInput) (*models.Comment, error) {
	if err := requireActor(uploader); err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, InvalidState("file attachments are not enabled")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, InvalidArgument("attachment name is required")
	}
	if in.Content == nil {
		return nil, InvalidArgument("attachment content is required")
	}
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(in.MediaType))
	if err != nil {
		mediaType = "application/octet-stream"
	}

	comment, err := s.Comment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	put, err := s.blobs.Put(ctx, in.Content)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	kind := models.AttachmentDocument
	if strings.HasPrefix(mediaType, "image/") {
		kind = models.AttachmentImage
	}
	size := put.SizeBytes
	return s.appendAttachment(ctx, comment.ID, models.Attachment{
		Name:       name,
		Type:       kind,
		MediaType:  mediaType,
		Size:       &size,
		BlobKey:    put.Key,
		UploadedBy: uploader.ID,
	})
}

// OpenAttachment returns an uploaded attachment and a reader over its bytes.
// Link attachments have no content and yield InvalidArgument.
func (s *Service) OpenAttachment(ctx context.Context, commentID, attachmentID string) (models.Attachment, io.ReadCloser, error) {
	comment, err := s.Comment(ctx, commentID)
	if err != nil {
		return models.Attachment{}, nil, err
	}
	for _, att := range comment.Attachments {
		if att.ID != attachmentID {
			continue
		}
		if att.BlobKey == "" {
			return att, nil, InvalidArgument("attachment %s is a link", att.ID)
		}
		if s.blobs == nil {
			return att, nil, InvalidState("file attachments are not enabled")
		}
		rc, err := s.blobs.Open(ctx, att.BlobKey)
		if errors.Is(err, blobstore.ErrNotFound) {
			return att, nil, NotFound("attachment content missing")
		}
		if err != nil {
			return att, nil, fmt.Errorf("open attachment: %w", err)
		}
		return att, rc, nil
	}
	return models.Attachment{}, nil, NotFound("attachment not found")
}

func (s *Service) appendAttachment(ctx context.Context, commentID string, att models.Attachment) (*models.Comment, error) {
	id, err := store.GenerateID(store.PrefixAttachment)
	if err != nil {
		return nil, err
	}
	att.ID = id
	att.UploadedAt = s.now()
	if att.URL == "" {
		att.URL = "/v1/comments/" + commentID + "/attachments/" + id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, NotFound("comment not found")
	}
	comment.Attachments = append(comment.Attachments, att)
	comment.UpdatedAt = att.UploadedAt
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	s.logger.Debug("attachment added", "comment_id", comment.ID, "attachment_id", att.ID, "type", att.Type)
	return comment, nil
}
