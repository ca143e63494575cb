package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskcollab/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// eachBackend runs fn against the sqlite and in-memory backends.
func eachBackend(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) { fn(t, testStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func testTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInvitationRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		inv := &models.Invitation{
			ID:            "inv-1",
			TaskID:        "t1",
			TaskTitle:     "Write report",
			InviterUserID: "u1",
			InviterName:   "Alice",
			InviteeEmail:  "bob@x.com",
			Role:          models.RoleEditor,
			Message:       "join me",
			Status:        models.InvitationPending,
			CreatedAt:     now,
			ExpiresAt:     now.Add(models.InvitationTTL),
		}
		if err := b.CreateInvitation(ctx, inv); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := b.GetInvitation(ctx, "inv-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil {
			t.Fatal("expected invitation, got nil")
		}
		if got.InviteeEmail != "bob@x.com" || got.Role != models.RoleEditor || got.Message != "join me" {
			t.Fatalf("unexpected invitation: %+v", got)
		}
		if !got.ExpiresAt.Equal(inv.ExpiresAt) {
			t.Fatalf("expected expires_at %v, got %v", inv.ExpiresAt, got.ExpiresAt)
		}

		accepted := now.Add(time.Hour)
		got.Status = models.InvitationAccepted
		got.InviteeUserID = "u2"
		got.AcceptedAt = &accepted
		if err := b.UpdateInvitation(ctx, got); err != nil {
			t.Fatalf("update: %v", err)
		}

		byUser, err := b.ListInvitations(ctx, InvitationFilter{Invitee: "u2"})
		if err != nil {
			t.Fatalf("list by user: %v", err)
		}
		if len(byUser) != 1 || byUser[0].AcceptedAt == nil || !byUser[0].AcceptedAt.Equal(accepted) {
			t.Fatalf("unexpected list by user: %+v", byUser)
		}

		pending, err := b.ListInvitations(ctx, InvitationFilter{Invitee: "bob@x.com", Statuses: []models.InvitationStatus{models.InvitationPending}})
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) != 0 {
			t.Fatalf("expected no pending invitations, got %d", len(pending))
		}
	})
}

func TestInvitationMissing(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		got, err := b.GetInvitation(ctx, "inv-missing")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
		err = b.UpdateInvitation(ctx, &models.Invitation{ID: "inv-missing"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestListInvitationsExpiresBefore(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		for i, offset := range []time.Duration{-time.Hour, time.Hour} {
			inv := &models.Invitation{
				ID:           []string{"inv-old", "inv-new"}[i],
				TaskID:       "t1",
				InviteeEmail: "bob@x.com",
				Role:         models.RoleViewer,
				Status:       models.InvitationPending,
				CreatedAt:    now.Add(-models.InvitationTTL),
				ExpiresAt:    now.Add(offset),
			}
			if err := b.CreateInvitation(ctx, inv); err != nil {
				t.Fatalf("create: %v", err)
			}
		}

		got, err := b.ListInvitations(ctx, InvitationFilter{ExpiresBefore: &now})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != "inv-old" {
			t.Fatalf("expected only inv-old, got %+v", got)
		}
	})
}

func TestListInvitationsExpiresBeforeWithinSecond(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		expires := testTime()
		inv := &models.Invitation{
			ID:           "inv-1",
			TaskID:       "t1",
			InviteeEmail: "bob@x.com",
			Role:         models.RoleViewer,
			Status:       models.InvitationPending,
			CreatedAt:    expires.Add(-models.InvitationTTL),
			ExpiresAt:    expires,
		}
		if err := b.CreateInvitation(ctx, inv); err != nil {
			t.Fatalf("create: %v", err)
		}

		for _, tc := range []struct {
			name string
			at   time.Time
			want int
		}{
			{"half a second later", expires.Add(500 * time.Millisecond), 1},
			{"one nanosecond later", expires.Add(time.Nanosecond), 1},
			{"at expiry", expires, 0},
			{"just before", expires.Add(-time.Millisecond), 0},
		} {
			got, err := b.ListInvitations(ctx, InvitationFilter{ExpiresBefore: &tc.at})
			if err != nil {
				t.Fatalf("%s: list: %v", tc.name, err)
			}
			if len(got) != tc.want {
				t.Fatalf("%s: expected %d invitations, got %d", tc.name, tc.want, len(got))
			}
		}
	})
}

func TestCollaboratorRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		c := &models.Collaborator{
			ID:          "col-1",
			UserID:      "u2",
			TaskID:      "t1",
			Role:        models.RoleViewer,
			InvitedBy:   "u1",
			InvitedAt:   now,
			AcceptedAt:  &now,
			Status:      models.CollaboratorAccepted,
			Permissions: models.DeriveCapabilities(models.RoleViewer),
		}
		if err := b.CreateCollaborator(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}

		c.Role = models.RoleEditor
		c.Permissions = models.DeriveCapabilities(models.RoleEditor)
		if err := b.UpdateCollaborator(ctx, c); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := b.ListCollaborators(ctx, CollaboratorFilter{TaskID: "t1", UserID: "u2", Status: models.CollaboratorAccepted})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 collaborator, got %d", len(got))
		}
		if got[0].Role != models.RoleEditor || got[0].Permissions != models.DeriveCapabilities(models.RoleEditor) {
			t.Fatalf("unexpected collaborator: %+v", got[0])
		}

		if err := b.UpdateCollaborator(ctx, &models.Collaborator{ID: "col-missing"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCommentRoundTripAndDelete(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		root := &models.Comment{
			ID:        "cmt-1",
			TaskID:    "t1",
			UserID:    "u1",
			UserName:  "Alice",
			Content:   "hello @bob",
			Type:      models.CommentTypeComment,
			Mentions:  []string{"bob"},
			CreatedAt: now,
			UpdatedAt: now,
		}
		reply := &models.Comment{
			ID:        "cmt-2",
			TaskID:    "t1",
			UserID:    "u2",
			UserName:  "Bob",
			Content:   "hi",
			Type:      models.CommentTypeComment,
			ParentID:  "cmt-1",
			CreatedAt: now.Add(time.Minute),
			UpdatedAt: now.Add(time.Minute),
		}
		for _, c := range []*models.Comment{root, reply} {
			if err := b.CreateComment(ctx, c); err != nil {
				t.Fatalf("create %s: %v", c.ID, err)
			}
		}

		root.Reactions = []models.Reaction{{ID: "rx-1", UserID: "u2", UserName: "Bob", Emoji: "👍", CreatedAt: now}}
		root.IsEdited = true
		root.EditedAt = &now
		if err := b.UpdateComment(ctx, root); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := b.GetComment(ctx, "cmt-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil || !got.IsEdited || len(got.Reactions) != 1 || got.Reactions[0].Emoji != "👍" {
			t.Fatalf("unexpected comment: %+v", got)
		}
		if len(got.Mentions) != 1 || got.Mentions[0] != "bob" {
			t.Fatalf("unexpected mentions: %v", got.Mentions)
		}

		replies, err := b.ListComments(ctx, CommentFilter{ParentID: "cmt-1"})
		if err != nil {
			t.Fatalf("list replies: %v", err)
		}
		if len(replies) != 1 || replies[0].ID != "cmt-2" {
			t.Fatalf("unexpected replies: %+v", replies)
		}
		if replies[0].Reactions == nil || replies[0].Mentions == nil {
			t.Fatal("expected empty collections, got nil")
		}

		if err := b.DeleteComments(ctx, []string{"cmt-1", "cmt-2"}); err != nil {
			t.Fatalf("delete: %v", err)
		}
		left, err := b.ListComments(ctx, CommentFilter{TaskID: "t1"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(left) != 0 {
			t.Fatalf("expected no comments, got %d", len(left))
		}
	})
}

func TestReviewsAndActivities(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		rating := 4
		if err := b.CreateReview(ctx, &models.Review{
			ID: "rev-1", TaskID: "t1", ReviewerID: "u2", ReviewerName: "Bob",
			Status: models.ReviewApproved, Rating: &rating, Feedback: "good",
			Suggestions: []string{"add tests"}, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("create review: %v", err)
		}
		if err := b.CreateReview(ctx, &models.Review{
			ID: "rev-2", TaskID: "t1", ReviewerID: "u1", ReviewerName: "Alice",
			Status: models.ReviewPending, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("create review: %v", err)
		}

		reviews, err := b.ListReviews(ctx, "t1")
		if err != nil {
			t.Fatalf("list reviews: %v", err)
		}
		if len(reviews) != 2 || reviews[0].ID != "rev-1" {
			t.Fatalf("unexpected reviews: %+v", reviews)
		}
		if reviews[0].Rating == nil || *reviews[0].Rating != 4 {
			t.Fatalf("expected rating 4, got %v", reviews[0].Rating)
		}
		if reviews[1].Rating != nil {
			t.Fatalf("expected nil rating, got %v", *reviews[1].Rating)
		}

		if err := b.CreateActivity(ctx, &models.Activity{
			ID: "act-1", TaskID: "t1", UserID: "u1", UserName: "Alice",
			Type: models.ActivityInvited, Description: "invited bob@x.com as editor",
			Metadata: map[string]any{"role": "editor"}, CreatedAt: now,
		}); err != nil {
			t.Fatalf("create activity: %v", err)
		}
		activities, err := b.ListActivities(ctx, "t1")
		if err != nil {
			t.Fatalf("list activities: %v", err)
		}
		if len(activities) != 1 || activities[0].Metadata["role"] != "editor" {
			t.Fatalf("unexpected activities: %+v", activities)
		}
	})
}

func TestNotificationsReadState(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		for _, id := range []string{"ntf-1", "ntf-2", "ntf-3"} {
			if err := b.CreateNotification(ctx, &models.Notification{
				ID: id, UserID: "u2", Type: models.NotificationCommentMention,
				Title: "You were mentioned", Message: "Alice mentioned you in a comment",
				TaskID: "t1", CreatedAt: now,
			}); err != nil {
				t.Fatalf("create: %v", err)
			}
		}

		found, err := b.MarkNotificationRead(ctx, "ntf-1")
		if err != nil || !found {
			t.Fatalf("mark read: found=%v err=%v", found, err)
		}
		found, err = b.MarkNotificationRead(ctx, "ntf-missing")
		if err != nil || found {
			t.Fatalf("mark missing: found=%v err=%v", found, err)
		}

		unread, err := b.ListNotifications(ctx, NotificationFilter{UserID: "u2", UnreadOnly: true})
		if err != nil {
			t.Fatalf("list unread: %v", err)
		}
		if len(unread) != 2 {
			t.Fatalf("expected 2 unread, got %d", len(unread))
		}

		count, err := b.MarkAllNotificationsRead(ctx, "u2")
		if err != nil {
			t.Fatalf("mark all: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 marked, got %d", count)
		}
	})
}

func TestPurgeTaskKeepsActivities(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		mustCreate(t, b.CreateInvitation(ctx, &models.Invitation{ID: "inv-1", TaskID: "t1", InviteeEmail: "b@x.com", Role: models.RoleViewer, Status: models.InvitationPending, CreatedAt: now, ExpiresAt: now}))
		mustCreate(t, b.CreateCollaborator(ctx, &models.Collaborator{ID: "col-1", TaskID: "t1", UserID: "u1", Role: models.RoleOwner, Status: models.CollaboratorAccepted, InvitedAt: now}))
		mustCreate(t, b.CreateComment(ctx, &models.Comment{ID: "cmt-1", TaskID: "t1", UserID: "u1", Type: models.CommentTypeComment, CreatedAt: now, UpdatedAt: now}))
		mustCreate(t, b.CreateActivity(ctx, &models.Activity{ID: "act-1", TaskID: "t1", UserID: "u1", Type: models.ActivityCreated, CreatedAt: now}))
		mustCreate(t, b.CreateCollaborator(ctx, &models.Collaborator{ID: "col-2", TaskID: "t2", UserID: "u1", Role: models.RoleOwner, Status: models.CollaboratorAccepted, InvitedAt: now}))

		if err := b.PurgeTask(ctx, "t1"); err != nil {
			t.Fatalf("purge: %v", err)
		}

		invs, _ := b.ListInvitations(ctx, InvitationFilter{TaskID: "t1"})
		cols, _ := b.ListCollaborators(ctx, CollaboratorFilter{TaskID: "t1"})
		cmts, _ := b.ListComments(ctx, CommentFilter{TaskID: "t1"})
		acts, _ := b.ListActivities(ctx, "t1")
		other, _ := b.ListCollaborators(ctx, CollaboratorFilter{TaskID: "t2"})
		if len(invs) != 0 || len(cols) != 0 || len(cmts) != 0 {
			t.Fatalf("expected task records purged: invs=%d cols=%d cmts=%d", len(invs), len(cols), len(cmts))
		}
		if len(acts) != 1 {
			t.Fatalf("expected activity kept, got %d", len(acts))
		}
		if len(other) != 1 {
			t.Fatalf("expected other task untouched, got %d", len(other))
		}
	})
}

func TestPurgeUser(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		mustCreate(t, b.CreateInvitation(ctx, &models.Invitation{ID: "inv-1", TaskID: "t1", InviterUserID: "u1", InviteeEmail: "b@x.com", Role: models.RoleViewer, Status: models.InvitationPending, CreatedAt: now, ExpiresAt: now}))
		mustCreate(t, b.CreateActivity(ctx, &models.Activity{ID: "act-1", TaskID: "t1", UserID: "u1", Type: models.ActivityCreated, CreatedAt: now}))
		mustCreate(t, b.CreateActivity(ctx, &models.Activity{ID: "act-2", TaskID: "t1", UserID: "u2", Type: models.ActivityJoined, CreatedAt: now}))
		mustCreate(t, b.CreateNotification(ctx, &models.Notification{ID: "ntf-1", UserID: "u1", Type: models.NotificationTaskInvitation, CreatedAt: now}))

		if err := b.PurgeUser(ctx, "u1"); err != nil {
			t.Fatalf("purge: %v", err)
		}

		invs, _ := b.ListInvitations(ctx, InvitationFilter{})
		acts, _ := b.ListActivities(ctx, "t1")
		ntfs, _ := b.ListNotifications(ctx, NotificationFilter{UserID: "u1"})
		if len(invs) != 0 || len(ntfs) != 0 {
			t.Fatalf("expected user records purged: invs=%d ntfs=%d", len(invs), len(ntfs))
		}
		if len(acts) != 1 || acts[0].UserID != "u2" {
			t.Fatalf("expected only u2 activity, got %+v", acts)
		}
	})
}

func TestTaskAndProjectCRUD(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		now := testTime()
		due := now.Add(48 * time.Hour)

		mustCreate(t, b.CreateProject(ctx, &models.Project{ID: "prj-1", OwnerID: "u1", Name: "Work", Color: "#10B981"}))
		mustCreate(t, b.CreateTask(ctx, &models.Task{
			ID: "task-1", Title: "Ship", Priority: models.PriorityHigh, Status: models.StatusTodo,
			ProjectID: "prj-1", DueDate: &due, CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
		}))
		mustCreate(t, b.CreateTask(ctx, &models.Task{
			ID: "task-2", Title: "Rest", Priority: models.PriorityLow, Status: models.StatusTodo,
			CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
		}))

		got, err := b.GetTask(ctx, "task-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil || got.DueDate == nil || !got.DueDate.Equal(due) || got.ProjectID != "prj-1" {
			t.Fatalf("unexpected task: %+v", got)
		}

		got.Completed = true
		got.Status = models.StatusDone
		if err := b.UpdateTask(ctx, got); err != nil {
			t.Fatalf("update: %v", err)
		}
		if err := b.UpdateTask(ctx, &models.Task{ID: "task-missing"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		byProject, err := b.ListTasks(ctx, TaskFilter{ProjectID: "prj-1"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(byProject) != 1 || !byProject[0].Completed {
			t.Fatalf("unexpected project tasks: %+v", byProject)
		}

		none, err := b.ListTasks(ctx, TaskFilter{IDs: []string{}})
		if err != nil {
			t.Fatalf("list empty ids: %v", err)
		}
		if len(none) != 0 {
			t.Fatalf("expected no tasks for empty id set, got %d", len(none))
		}

		if err := b.DeleteTask(ctx, "task-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		all, _ := b.ListTasks(ctx, TaskFilter{})
		if len(all) != 1 || all[0].ID != "task-2" {
			t.Fatalf("unexpected remaining tasks: %+v", all)
		}

		projects, err := b.ListProjects(ctx, "u1")
		if err != nil {
			t.Fatalf("list projects: %v", err)
		}
		if len(projects) != 1 || projects[0].Name != "Work" {
			t.Fatalf("unexpected projects: %+v", projects)
		}
		if err := b.DeleteProject(ctx, "prj-1"); err != nil {
			t.Fatalf("delete project: %v", err)
		}
		if p, _ := b.GetProject(ctx, "prj-1"); p != nil {
			t.Fatalf("expected project deleted, got %+v", p)
		}
	})
}

func mustCreate(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}
