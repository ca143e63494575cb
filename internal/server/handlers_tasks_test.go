package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"taskcollab/internal/api"
	"taskcollab/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCreateTask_UnknownJSONFieldsAreIgnored(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"title":             "Forward compatible payload",
		"priority":          "high",
		"unknown_new_field": map[string]any{"nested": true},
		"another_future":    "value",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token(t, alice))
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	var created models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected created task id")
	}
	if created.Title != "Forward compatible payload" || created.Priority != models.PriorityHigh {
		t.Fatalf("unexpected task: %+v", created)
	}
}

func TestCreateTask_TrailingJSONRejected(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte(`{"title":"first"}{"title":"second"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token(t, alice))
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.ErrorCode != ErrCodeInvalidJSON {
		t.Fatalf("expected error_code %d, got %d", ErrCodeInvalidJSON, errResp.ErrorCode)
	}

	tasks, err := env.client(t, alice).ListTasks(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks to be created, got %d", len(tasks))
	}
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, alice)
	ctx := context.Background()

	tests := []struct {
		name string
		req  api.TaskCreateRequest
		code int
	}{
		{"missing title", api.TaskCreateRequest{Title: "  "}, ErrCodeMissingRequired},
		{"bad priority", api.TaskCreateRequest{Title: "x", Priority: "urgent"}, ErrCodeInvalidPriority},
		{"bad status", api.TaskCreateRequest{Title: "x", Status: "blocked"}, ErrCodeInvalidStatus},
		{"bad due date", api.TaskCreateRequest{Title: "x", DueDate: strPtr("next week")}, ErrCodeInvalidTimeFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateTask(ctx, tt.req)
			requireAPIStatus(t, err, http.StatusBadRequest, tt.code)
		})
	}

	_, err := c.CreateTask(ctx, api.TaskCreateRequest{Title: "x", ProjectID: "prj-00000000-0000-0000-0000-000000000000"})
	requireAPIStatus(t, err, http.StatusNotFound, ErrCodeNotFound)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	aliceClient := env.client(t, alice)
	bobClient := env.client(t, bob)
	ctx := context.Background()

	created, err := aliceClient.CreateTask(ctx, api.TaskCreateRequest{
		Title:       "Write release notes",
		Description: "cover the API changes",
		DueDate:     strPtr("2026-05-10"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.DueDate == nil {
		t.Fatal("expected due date")
	}
	if _, err := aliceClient.CreateTask(ctx, api.TaskCreateRequest{Title: "Plan offsite", Priority: "low"}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	_, err = bobClient.GetTask(ctx, created.ID)
	requireAPIStatus(t, err, http.StatusForbidden, ErrCodeForbidden)
	_, err = bobClient.UpdateTask(ctx, created.ID, api.TaskUpdateRequest{Title: strPtr("hijack")})
	requireAPIStatus(t, err, http.StatusForbidden, ErrCodeForbidden)

	updated, err := aliceClient.UpdateTask(ctx, created.ID, api.TaskUpdateRequest{
		Priority: strPtr("high"),
		DueDate:  strPtr(""),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Priority != models.PriorityHigh || updated.DueDate != nil {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	toggled, err := aliceClient.ToggleTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Fatal("expected completed after toggle")
	}

	completed, err := aliceClient.ListTasks(ctx, url.Values{"status": {"completed"}})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != created.ID {
		t.Fatalf("unexpected completed list: %+v", completed)
	}
	searched, err := aliceClient.ListTasks(ctx, url.Values{"search": {"OFFSITE"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(searched) != 1 || searched[0].Title != "Plan offsite" {
		t.Fatalf("unexpected search result: %+v", searched)
	}
	bobTasks, err := bobClient.ListTasks(ctx, nil)
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}
	if len(bobTasks) != 0 {
		t.Fatalf("bob should see no tasks, got %d", len(bobTasks))
	}

	stats, err := aliceClient.TaskStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := aliceClient.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = aliceClient.GetTask(ctx, created.ID)
	requireAPIStatus(t, err, http.StatusNotFound, ErrCodeNotFound)
}

func TestListTasksRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, alice)
	ctx := context.Background()

	_, err := c.ListTasks(ctx, url.Values{"status": {"archived"}})
	requireAPIStatus(t, err, http.StatusBadRequest, ErrCodeInvalidQuery)
	_, err = c.ListTasks(ctx, url.Values{"range": {"decade"}})
	requireAPIStatus(t, err, http.StatusBadRequest, ErrCodeInvalidTimeFilter)
	_, err = c.ListTasks(ctx, url.Values{"priority": {"critical"}})
	requireAPIStatus(t, err, http.StatusBadRequest, ErrCodeInvalidPriority)
}

func TestInvalidPathIDRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.client(t, alice).GetTask(context.Background(), "not-an-id")
	requireAPIStatus(t, err, http.StatusBadRequest, ErrCodeInvalidID)
}

func TestProjectsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, alice)
	ctx := context.Background()

	projects, err := c.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != len(models.DefaultProjects(alice.ID)) {
		t.Fatalf("expected seeded projects, got %d", len(projects))
	}

	project, err := c.CreateProject(ctx, api.ProjectRequest{Name: "Garden", Color: "#22AA44"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	_, err = c.CreateProject(ctx, api.ProjectRequest{Name: "Bad", Color: "green"})
	requireAPIStatus(t, err, http.StatusBadRequest, ErrCodeInvalidArgument)

	if _, err := c.CreateTask(ctx, api.TaskCreateRequest{Title: "Plant tomatoes", ProjectID: project.ID}); err != nil {
		t.Fatalf("create task in project: %v", err)
	}

	renamed, err := c.UpdateProject(ctx, project.ID, api.ProjectRequest{Name: "Allotment"})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if renamed.Name != "Allotment" || renamed.Color != "#22AA44" {
		t.Fatalf("unexpected renamed project: %+v", renamed)
	}

	_, err = env.client(t, bob).UpdateProject(ctx, project.ID, api.ProjectRequest{Name: "Mine"})
	requireAPIStatus(t, err, http.StatusNotFound, ErrCodeNotFound)

	removed, err := c.DeleteProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if removed.TasksRemoved != 1 {
		t.Fatalf("expected one task removed, got %d", removed.TasksRemoved)
	}
}
