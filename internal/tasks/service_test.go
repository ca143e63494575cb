package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskcollab/internal/collab"
	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	alice = models.Actor{ID: "u-alice", Name: "Alice", Email: "alice@example.com"}
	bob   = models.Actor{ID: "u-bob", Name: "Bob", Email: "bob@example.com"}
)

func newTestServices(t *testing.T) (*Service, *collab.Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore()
	collabSvc := collab.NewService(st, collab.WithClock(clock.Now))
	return NewService(st, collabSvc, WithClock(clock.Now)), collabSvc, clock
}

func mustCreate(t *testing.T, svc *Service, actor models.Actor, input CreateInput) *models.Task {
	t.Helper()
	created, err := svc.Create(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create %q: %v", input.Title, err)
	}
	return created
}

func join(t *testing.T, collabSvc *collab.Service, task *models.Task, inviter, user models.Actor, role models.Role) {
	t.Helper()
	ctx := context.Background()
	inv, err := collabSvc.InviteUserToTask(ctx, collab.TaskRef{ID: task.ID, Title: task.Title}, inviter, user.Email, role, "")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := collabSvc.AcceptInvitation(ctx, inv.ID, user); err != nil {
		t.Fatalf("accept: %v", err)
	}
}

func TestCreateMakesCreatorOwner(t *testing.T) {
	svc, collabSvc, _ := newTestServices(t)
	ctx := context.Background()

	created := mustCreate(t, svc, alice, CreateInput{Title: "  Draft plan  "})
	if created.Title != "Draft plan" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}
	if created.Priority != models.PriorityMedium || created.Status != models.StatusTodo || created.Completed {
		t.Fatalf("unexpected defaults: %+v", created)
	}

	perms, err := collabSvc.TaskPermissions(ctx, created.ID, alice.ID)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if perms != models.DeriveCapabilities(models.RoleOwner) {
		t.Fatalf("expected owner permissions, got %+v", perms)
	}

	activities, err := collabSvc.TaskActivities(ctx, created.ID)
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	found := false
	for _, a := range activities {
		if a.Type == models.ActivityCreated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected created activity, got %+v", activities)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor models.Actor
		input CreateInput
	}{
		{"missing user", models.Actor{}, CreateInput{Title: "x"}},
		{"blank title", alice, CreateInput{Title: "   "}},
		{"bad priority", alice, CreateInput{Title: "x", Priority: "urgent"}},
		{"bad status", alice, CreateInput{Title: "x", Status: "blocked"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.actor, tc.input)
			if !collab.IsKind(err, collab.KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}

	_, err := svc.Create(ctx, alice, CreateInput{Title: "x", ProjectID: "prj-missing"})
	if !IsNotFound(err) {
		t.Fatalf("expected not found for unknown project, got %v", err)
	}
}

func TestGetRequiresCollaboration(t *testing.T) {
	svc, collabSvc, _ := newTestServices(t)
	ctx := context.Background()
	created := mustCreate(t, svc, alice, CreateInput{Title: "Private"})

	if _, err := svc.Get(ctx, bob, created.ID); !collab.IsKind(err, collab.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	join(t, collabSvc, created, alice, bob, models.RoleViewer)
	got, err := svc.Get(ctx, bob, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected task %s", got.ID)
	}
	if _, err := svc.Get(ctx, alice, "task-missing"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRecordsActivities(t *testing.T) {
	svc, collabSvc, clock := newTestServices(t)
	ctx := context.Background()
	created := mustCreate(t, svc, alice, CreateInput{Title: "Plan"})
	clock.Advance(time.Minute)

	title := "Plan v2"
	priority := models.PriorityHigh
	status := models.StatusDone
	due := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, alice, created.ID, UpdateInput{
		Title:    &title,
		Priority: &priority,
		Status:   &status,
		DueDate:  &due,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Priority != priority || !updated.Completed {
		t.Fatalf("unexpected task: %+v", updated)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", updated.DueDate)
	}
	if !updated.UpdatedAt.After(created.CreatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}

	activities, err := collabSvc.TaskActivities(ctx, created.ID)
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	kinds := map[models.ActivityType]bool{}
	for _, a := range activities {
		kinds[a.Type] = true
	}
	for _, want := range []models.ActivityType{
		models.ActivityUpdated, models.ActivityPriorityChanged,
		models.ActivityCompleted, models.ActivityDueDateChanged,
	} {
		if !kinds[want] {
			t.Fatalf("missing %s activity in %+v", want, activities)
		}
	}

	cleared, err := svc.Update(ctx, alice, created.ID, UpdateInput{ClearDueDate: true})
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueDate != nil {
		t.Fatalf("expected due date cleared")
	}
}

func TestUpdatePermissions(t *testing.T) {
	svc, collabSvc, _ := newTestServices(t)
	ctx := context.Background()
	created := mustCreate(t, svc, alice, CreateInput{Title: "Shared"})
	join(t, collabSvc, created, alice, bob, models.RoleViewer)

	title := "Hijacked"
	if _, err := svc.Update(ctx, bob, created.ID, UpdateInput{Title: &title}); !collab.IsKind(err, collab.KindForbidden) {
		t.Fatalf("expected forbidden for viewer, got %v", err)
	}
	if _, err := svc.Toggle(ctx, bob, created.ID); !collab.IsKind(err, collab.KindForbidden) {
		t.Fatalf("expected forbidden toggle for viewer, got %v", err)
	}
	if err := svc.Delete(ctx, bob, created.ID); !collab.IsKind(err, collab.KindForbidden) {
		t.Fatalf("expected forbidden delete for viewer, got %v", err)
	}
}

func TestEditorCanEditButNotDelete(t *testing.T) {
	svc, collabSvc, _ := newTestServices(t)
	ctx := context.Background()
	created := mustCreate(t, svc, alice, CreateInput{Title: "Shared"})
	join(t, collabSvc, created, alice, bob, models.RoleEditor)

	toggled, err := svc.Toggle(ctx, bob, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed || toggled.Status != models.StatusDone {
		t.Fatalf("expected completed task, got %+v", toggled)
	}
	toggled, err = svc.Toggle(ctx, bob, created.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if toggled.Completed || toggled.Status != models.StatusTodo {
		t.Fatalf("expected pending task, got %+v", toggled)
	}
	if err := svc.Delete(ctx, bob, created.ID); !collab.IsKind(err, collab.KindForbidden) {
		t.Fatalf("expected forbidden delete for editor, got %v", err)
	}
}

func TestDeletePurgesCollaboration(t *testing.T) {
	svc, collabSvc, _ := newTestServices(t)
	ctx := context.Background()
	created := mustCreate(t, svc, alice, CreateInput{Title: "Doomed"})
	join(t, collabSvc, created, alice, bob, models.RoleEditor)

	if err := svc.Delete(ctx, alice, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, alice, created.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	collaborators, err := collabSvc.TaskCollaborators(ctx, created.ID)
	if err != nil {
		t.Fatalf("collaborators: %v", err)
	}
	if len(collaborators) != 0 {
		t.Fatalf("expected collaborators purged, got %d", len(collaborators))
	}
	activities, err := collabSvc.TaskActivities(ctx, created.ID)
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	if len(activities) == 0 || activities[0].Type != models.ActivityDeleted {
		t.Fatalf("expected deleted activity first, got %+v", activities)
	}
}

func TestListAndStats(t *testing.T) {
	svc, collabSvc, clock := newTestServices(t)
	ctx := context.Background()

	first := mustCreate(t, svc, alice, CreateInput{Title: "Buy milk", Priority: models.PriorityLow})
	clock.Advance(time.Minute)
	second := mustCreate(t, svc, alice, CreateInput{Title: "Write essay", Description: "About MILK", Status: models.StatusDone})
	clock.Advance(time.Minute)
	mustCreate(t, svc, bob, CreateInput{Title: "Bob's milk"})

	all, err := svc.List(ctx, alice, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected alice's tasks newest first, got %+v", all)
	}

	matched, err := svc.List(ctx, alice, Filter{Search: "milk", Status: StatusPending})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != first.ID {
		t.Fatalf("unexpected filtered tasks: %+v", matched)
	}

	stats, err := svc.Stats(ctx, alice)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != (Stats{Total: 2, Completed: 1, Pending: 1}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	join(t, collabSvc, second, alice, bob, models.RoleViewer)
	bobTasks, err := svc.List(ctx, bob, Filter{})
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(bobTasks) != 2 {
		t.Fatalf("expected bob to see own and shared task, got %d", len(bobTasks))
	}
}

func TestProjectsSeedAndCount(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	projects, err := svc.Projects(ctx, alice)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(projects) != 3 || projects[0].Name != "Personal" || projects[2].Color != "#8B5CF6" {
		t.Fatalf("unexpected default projects: %+v", projects)
	}

	work := projects[1]
	mustCreate(t, svc, alice, CreateInput{Title: "Report", ProjectID: work.ID})
	mustCreate(t, svc, alice, CreateInput{Title: "Slides", ProjectID: work.ID, Status: models.StatusDone})

	projects, err = svc.Projects(ctx, alice)
	if err != nil {
		t.Fatalf("projects again: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("expected no reseed, got %d projects", len(projects))
	}
	if projects[1].TaskCount != 2 || projects[1].CompletedTasks != 1 {
		t.Fatalf("unexpected counts: %+v", projects[1])
	}

	if _, err := svc.Create(ctx, bob, CreateInput{Title: "Sneaky", ProjectID: work.ID}); !IsNotFound(err) {
		t.Fatalf("expected not found for foreign project, got %v", err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, alice, "Garden", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.Color != "#3B82F6" {
		t.Fatalf("expected default color, got %s", project.Color)
	}
	if _, err := svc.CreateProject(ctx, alice, "Bad", "blue"); !collab.IsKind(err, collab.KindInvalidArgument) {
		t.Fatalf("expected invalid color, got %v", err)
	}

	updated, err := svc.UpdateProject(ctx, alice, project.ID, "Allotment", "#10B981")
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if updated.Name != "Allotment" || updated.Color != "#10B981" {
		t.Fatalf("unexpected project: %+v", updated)
	}
	if _, err := svc.UpdateProject(ctx, bob, project.ID, "Mine", ""); !IsNotFound(err) {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}

	kept := mustCreate(t, svc, alice, CreateInput{Title: "Loose"})
	mustCreate(t, svc, alice, CreateInput{Title: "Weed", ProjectID: project.ID})
	mustCreate(t, svc, alice, CreateInput{Title: "Water", ProjectID: project.ID})

	removed, err := svc.DeleteProject(ctx, alice, project.ID)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 tasks removed, got %d", removed)
	}
	remaining, err := svc.List(ctx, alice, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != kept.ID {
		t.Fatalf("unexpected remaining tasks: %+v", remaining)
	}
}
