package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"taskcollab/internal/api"
	"taskcollab/internal/format"
	"taskcollab/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

// emit writes payload as JSON when requested, otherwise renders it with plain.
func emit(opts *cliOptions, payload any, plain func() error) error {
	if opts != nil && opts.jsonOutput {
		return writeJSON(payload)
	}
	return plain()
}

func writeLines(lines []string) error {
	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeTaskList(tasks []models.Task) error {
	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		lines = append(lines, formatTaskLine(task))
	}
	return writeLines(lines)
}

func formatTaskLine(task models.Task) string {
	mark := "○"
	if task.Completed {
		mark = "●"
	}
	line := fmt.Sprintf("%s %s [%s] [%s] - %s", mark, task.ID, task.Priority, task.Status, task.Title)
	if task.DueDate != nil {
		line += " (due " + task.DueDate.UTC().Format(time.DateOnly) + ")"
	}
	return line
}

func writeTaskDetail(task models.Task) error {
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("status: %s", task.Status),
		fmt.Sprintf("priority: %s", task.Priority),
		fmt.Sprintf("completed: %t", task.Completed),
		fmt.Sprintf("created_by: %s", task.CreatedBy),
		fmt.Sprintf("created_at: %s", formatTime(task.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(task.UpdatedAt)),
	}
	if task.ProjectID != "" {
		lines = append(lines, fmt.Sprintf("project_id: %s", task.ProjectID))
	}
	if task.DueDate != nil {
		lines = append(lines, fmt.Sprintf("due_date: %s", formatTime(*task.DueDate)))
	}
	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", task.Description))
	}
	return writeLines(lines)
}

func writeProjectList(projects []api.ProjectResponse) error {
	lines := make([]string, 0, len(projects))
	for _, p := range projects {
		lines = append(lines, fmt.Sprintf("%s %s %s (%d/%d done)", p.ID, p.Color, p.Name, p.CompletedTasks, p.TaskCount))
	}
	return writeLines(lines)
}

func writeInvitationList(invitations []models.Invitation) error {
	lines := make([]string, 0, len(invitations))
	for _, inv := range invitations {
		line := fmt.Sprintf("%s [%s] %s invited %s as %s on %q (expires %s)",
			inv.ID, inv.Status, inv.InviterName, inv.InviteeEmail, inv.Role, inv.TaskTitle, formatTime(inv.ExpiresAt))
		if inv.Message != "" {
			line += ": " + inv.Message
		}
		lines = append(lines, line)
	}
	return writeLines(lines)
}

func writeCollaboratorList(collaborators []models.Collaborator) error {
	lines := make([]string, 0, len(collaborators))
	for _, c := range collaborators {
		lines = append(lines, fmt.Sprintf("%s %s [%s] %s", c.ID, c.UserID, c.Role, formatPermissions(c.Permissions)))
	}
	return writeLines(lines)
}

func formatPermissions(p models.Permissions) string {
	var granted []string
	for _, perm := range []struct {
		name string
		ok   bool
	}{
		{"edit", p.CanEdit},
		{"comment", p.CanComment},
		{"invite", p.CanInvite},
		{"delete", p.CanDelete},
		{"status", p.CanChangeStatus},
	} {
		if perm.ok {
			granted = append(granted, perm.name)
		}
	}
	if len(granted) == 0 {
		return "none"
	}
	return strings.Join(granted, ",")
}

// writeCommentThread prints comments as a tree, replies indented beneath their parent.
func writeCommentThread(comments []models.Comment) error {
	children := make(map[string][]models.Comment)
	known := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		known[c.ID] = struct{}{}
	}
	var roots []models.Comment
	for _, c := range comments {
		if _, ok := known[c.ParentID]; c.ParentID != "" && ok {
			children[c.ParentID] = append(children[c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var lines []string
	var walk func(c models.Comment, depth int)
	walk = func(c models.Comment, depth int) {
		line := fmt.Sprintf("%s%s %s [%s]: %s", strings.Repeat("  ", depth), c.ID, c.UserName, c.Type, c.Content)
		if c.IsEdited {
			line += " (edited)"
		}
		if len(c.Attachments) > 0 {
			line += fmt.Sprintf(" [%d attached]", len(c.Attachments))
		}
		if len(c.Reactions) > 0 {
			emoji := make([]string, 0, len(c.Reactions))
			for _, r := range c.Reactions {
				emoji = append(emoji, r.Emoji)
			}
			line += " " + strings.Join(emoji, "")
		}
		lines = append(lines, line)
		for _, child := range children[c.ID] {
			walk(child, depth+1)
		}
	}
	for _, c := range roots {
		walk(c, 0)
	}
	return writeLines(lines)
}

func writeAttachmentList(attachments []models.Attachment) error {
	lines := make([]string, 0, len(attachments))
	for _, a := range attachments {
		line := fmt.Sprintf("%s [%s] %s %s", a.ID, a.Type, a.Name, a.URL)
		if a.Size != nil {
			line += fmt.Sprintf(" (%d bytes)", *a.Size)
		}
		lines = append(lines, line)
	}
	return writeLines(lines)
}

func writeReviewList(reviews []models.Review) error {
	lines := make([]string, 0, len(reviews))
	for _, r := range reviews {
		line := fmt.Sprintf("%s %s [%s]", r.ID, r.ReviewerName, r.Status)
		if r.Rating != nil {
			line += fmt.Sprintf(" %d/5", *r.Rating)
		}
		if r.Feedback != "" {
			line += ": " + r.Feedback
		}
		lines = append(lines, line)
		for _, s := range r.Suggestions {
			lines = append(lines, "  - "+s)
		}
	}
	return writeLines(lines)
}

func writeActivityList(activities []models.Activity) error {
	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		lines = append(lines, fmt.Sprintf("%s %s %s", formatTime(a.CreatedAt), a.UserName, a.Description))
	}
	return writeLines(lines)
}

func writeNotificationList(notifications []models.Notification) error {
	lines := make([]string, 0, len(notifications))
	for _, n := range notifications {
		lines = append(lines, formatNotificationLine(n))
	}
	return writeLines(lines)
}

func formatNotificationLine(n models.Notification) string {
	mark := "*"
	if n.Read {
		mark = " "
	}
	return fmt.Sprintf("%s %s %s: %s", mark, n.ID, n.Title, n.Message)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
