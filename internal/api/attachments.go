package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"taskcollab/internal/models"
)

func commentPath(id string) string {
	return "/v1/comments/" + url.PathEscape(id)
}

// AttachLink adds a link attachment to one of the caller's comments.
func (c *Client) AttachLink(ctx context.Context, commentID string, req LinkAttachmentRequest) (models.Comment, error) {
	var resp models.Comment
	err := c.do(ctx, http.MethodPost, commentPath(commentID)+"/links", nil, req, &resp)
	return resp, err
}

// UploadAttachment streams content as a multipart upload onto a comment.
// An empty mediaType lets the server sniff the content.
func (c *Client) UploadAttachment(ctx context.Context, commentID, name, mediaType string, content io.Reader) (models.Comment, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeAttachmentForm(form, name, mediaType, content))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+commentPath(commentID)+"/attachments", pr)
	if err != nil {
		pr.Close()
		return models.Comment{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Comment{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return models.Comment{}, decodeError(resp)
	}
	var comment models.Comment
	if err := json.NewDecoder(resp.Body).Decode(&comment); err != nil {
		return models.Comment{}, fmt.Errorf("decode comment: %w", err)
	}
	return comment, nil
}

func writeAttachmentForm(form *multipart.Writer, name, mediaType string, content io.Reader) error {
	if err := form.WriteField("name", name); err != nil {
		return err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="content"; filename=%q`, name))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	header.Set("Content-Type", mediaType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}

// DownloadAttachment copies an uploaded attachment's bytes into w and
// returns the response media type.
func (c *Client) DownloadAttachment(ctx context.Context, commentID, attachmentID string, w io.Writer) (string, error) {
	endpoint := c.baseURL + commentPath(commentID) + "/attachments/" + url.PathEscape(attachmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", err
	}
	return resp.Header.Get("Content-Type"), nil
}
