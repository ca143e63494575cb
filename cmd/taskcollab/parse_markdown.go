package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"taskcollab/internal/api"
)

var listItemRegex = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)

// markdownDoc is a markdown file split into YAML front matter and body.
type markdownDoc struct {
	front map[string]any
	body  string
	items []string
}

func readMarkdownFile(path string) (markdownDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return markdownDoc{}, err
	}
	return parseMarkdown(string(data))
}

func parseMarkdown(input string) (markdownDoc, error) {
	doc := markdownDoc{front: map[string]any{}, body: input}

	lines := strings.Split(input, "\n")
	if len(lines) >= 3 && strings.TrimSpace(lines[0]) == "---" {
		end := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				end = i
				break
			}
		}
		if end == -1 {
			return markdownDoc{}, fmt.Errorf("front matter not closed")
		}
		frontText := strings.Join(lines[1:end], "\n")
		if err := yaml.Unmarshal([]byte(frontText), &doc.front); err != nil {
			return markdownDoc{}, err
		}
		doc.body = strings.Join(lines[end+1:], "\n")
	}
	doc.body = strings.TrimSpace(doc.body)

	for _, line := range strings.Split(doc.body, "\n") {
		match := listItemRegex.FindStringSubmatch(line)
		if len(match) == 2 {
			item := strings.TrimSpace(match[1])
			if item != "" {
				doc.items = append(doc.items, item)
			}
		}
	}
	return doc, nil
}

func (d markdownDoc) str(key string) string {
	switch v := d.front[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// taskRequestFromMarkdown builds a create request from front matter keys
// title, priority, status, project and due. The body becomes the description.
func taskRequestFromMarkdown(doc markdownDoc) (api.TaskCreateRequest, error) {
	req := api.TaskCreateRequest{
		Title:       doc.str("title"),
		Description: doc.body,
		Priority:    doc.str("priority"),
		Status:      doc.str("status"),
		ProjectID:   doc.str("project"),
	}
	if req.Title == "" {
		return req, fmt.Errorf("front matter title is required")
	}
	if due := doc.str("due"); due != "" {
		req.DueDate = &due
	}
	return req, nil
}

// reviewRequestFromMarkdown reads status, rating and feedback from front
// matter. Bullet items in the body become suggestions.
func reviewRequestFromMarkdown(doc markdownDoc) (api.ReviewSubmitRequest, error) {
	req := api.ReviewSubmitRequest{
		Status:      doc.str("status"),
		Feedback:    doc.str("feedback"),
		Suggestions: doc.items,
	}
	if req.Status == "" {
		return req, fmt.Errorf("front matter status is required")
	}
	if raw := doc.str("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("rating must be a number: %w", err)
		}
		req.Rating = &rating
	}
	return req, nil
}
