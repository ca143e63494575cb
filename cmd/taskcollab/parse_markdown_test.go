package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMarkdownTask(t *testing.T) {
	input := "---\ntitle: Ship the beta\npriority: high\ndue: 2026-11-01\nproject: prj-1\n---\n\nCut the branch first.\n"
	doc, err := parseMarkdown(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	req, err := taskRequestFromMarkdown(doc)
	if err != nil {
		t.Fatalf("to request: %v", err)
	}
	if req.Title != "Ship the beta" || req.Priority != "high" || req.ProjectID != "prj-1" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.DueDate == nil || *req.DueDate != "2026-11-01" {
		t.Fatalf("unexpected due date: %v", req.DueDate)
	}
	if req.Description != "Cut the branch first." {
		t.Fatalf("unexpected description: %q", req.Description)
	}
}

func TestParseMarkdownReview(t *testing.T) {
	input := "---\nstatus: changes_requested\nrating: 3\nfeedback: Close\n---\n- add a test\n* fix docs\nnot a list item\n"
	doc, err := parseMarkdown(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	req, err := reviewRequestFromMarkdown(doc)
	if err != nil {
		t.Fatalf("to request: %v", err)
	}
	if req.Status != "changes_requested" || req.Feedback != "Close" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Rating == nil || *req.Rating != 3 {
		t.Fatalf("unexpected rating: %v", req.Rating)
	}
	if len(req.Suggestions) != 2 || req.Suggestions[0] != "add a test" || req.Suggestions[1] != "fix docs" {
		t.Fatalf("unexpected suggestions: %v", req.Suggestions)
	}
}

func TestParseMarkdownErrors(t *testing.T) {
	if _, err := parseMarkdown("---\ntitle: x\nno closing fence\n"); err == nil {
		t.Fatal("expected unclosed front matter error")
	}

	doc, err := parseMarkdown("just a body")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := taskRequestFromMarkdown(doc); err == nil {
		t.Fatal("expected missing title error")
	}

	doc, err = parseMarkdown("---\nstatus: approved\nrating: great\n---\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := reviewRequestFromMarkdown(doc); err == nil {
		t.Fatal("expected bad rating error")
	}
}

func TestReadMarkdownFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.md")
	if err := os.WriteFile(path, []byte("---\ntitle: From file\n---\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	req, err := buildTaskCreateRequest(&taskFieldOptions{}, path, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Title != "From file" || req.Description != "" {
		t.Fatalf("unexpected request: %+v", req)
	}

	if _, err := buildTaskCreateRequest(&taskFieldOptions{}, "", nil); err == nil {
		t.Fatal("expected title required error")
	}
	req, err = buildTaskCreateRequest(&taskFieldOptions{priority: "low", due: "2026-01-02"}, "", []string{"Buy", "milk"})
	if err != nil {
		t.Fatalf("build from args: %v", err)
	}
	if req.Title != "Buy milk" || req.Priority != "low" || req.DueDate == nil {
		t.Fatalf("unexpected request: %+v", req)
	}
}
