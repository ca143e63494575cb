package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskcollab/internal/api"
	"taskcollab/internal/authn"
	"taskcollab/internal/blobstore"
	"taskcollab/internal/collab"
	"taskcollab/internal/models"
	"taskcollab/internal/notify"
	"taskcollab/internal/store"
	"taskcollab/internal/tasks"
)

var (
	alice = models.Actor{ID: "u-alice", Name: "Alice", Email: "alice@example.com"}
	bob   = models.Actor{ID: "u-bob", Name: "Bob", Email: "bob@example.com"}
	carol = models.Actor{ID: "u-carol", Name: "Carol", Email: "carol@example.com"}
)

type testEnv struct {
	srv    *Server
	signer *authn.Signer
	collab *collab.Service
	hub    *notify.Hub
}

func newTestEnv(t *testing.T, origins ...string) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	hub := notify.NewHub(8)
	collabSvc := collab.NewService(st, collab.WithPublisher(hub), collab.WithBlobStore(blobstore.NewMemory()))
	taskSvc := tasks.NewService(st, collabSvc)
	signer, err := authn.NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	srv, err := New(Config{
		StoreKind:      "memory",
		Version:        "test",
		Collab:         collabSvc,
		Tasks:          taskSvc,
		Hub:            hub,
		Signer:         signer,
		AllowedOrigins: origins,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testEnv{srv: srv, signer: signer, collab: collabSvc, hub: hub}
}

func (e *testEnv) token(t *testing.T, actor models.Actor) string {
	t.Helper()
	token, _, err := e.signer.Issue(actor)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// client starts an httptest server and returns an API client acting as actor.
func (e *testEnv) client(t *testing.T, actor models.Actor) *api.Client {
	t.Helper()
	ts := httptest.NewServer(e.srv.Handler())
	t.Cleanup(ts.Close)
	c := api.NewClient(ts.URL)
	c.SetToken(e.token(t, actor))
	return c
}

func requireAPIStatus(t *testing.T, err error, status, code int) {
	t.Helper()
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error %d, got %v", status, err)
	}
	if apiErr.Status != status {
		t.Fatalf("expected status %d, got %d (%v)", status, apiErr.Status, apiErr)
	}
	if code != 0 && apiErr.ErrorCode != code {
		t.Fatalf("expected error_code %d, got %d", code, apiErr.ErrorCode)
	}
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7433")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:7433")
		if err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7433")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestNewRequiresServices(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without services")
	}
}

func TestWithAuth(t *testing.T) {
	env := newTestEnv(t)

	t.Run("denies missing auth", func(t *testing.T) {
		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusNoContent)
		})
		handler := env.srv.withAuth(next)

		req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if errResp.ErrorCode != ErrCodeUnauthorized {
			t.Fatalf("expected error_code %d, got %d", ErrCodeUnauthorized, errResp.ErrorCode)
		}
		if nextCalled {
			t.Fatal("next handler should not be called")
		}
	})

	t.Run("denies token from another secret", func(t *testing.T) {
		other, err := authn.NewSigner("other-secret", time.Hour)
		if err != nil {
			t.Fatalf("new signer: %v", err)
		}
		token, _, err := other.Issue(alice)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		handler := env.srv.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called")
		}))
		req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("allows valid auth", func(t *testing.T) {
		var got models.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = authn.ActorFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
		handler := env.srv.withAuth(next)

		req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+env.token(t, alice))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if got.ID != alice.ID || got.Email != alice.Email {
			t.Fatalf("unexpected actor in context: %+v", got)
		}
	})

	t.Run("health bypasses auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}

func TestInfoAndMe(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, alice)
	ctx := context.Background()

	info, err := c.GetInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Store != "memory" || info.Version != "test" || info.SchemaVersion != store.SchemaVersion() {
		t.Fatalf("unexpected info: %+v", info)
	}

	me, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != alice.ID || len(me.Identities) != 2 {
		t.Fatalf("unexpected me: %+v", me)
	}
}

func TestAsHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", collab.NotFound("missing"), http.StatusNotFound, ErrCodeNotFound},
		{"invalid state", collab.InvalidState("gone"), http.StatusConflict, ErrCodeInvalidState},
		{"invalid argument", collab.InvalidArgument("bad"), http.StatusBadRequest, ErrCodeInvalidArgument},
		{"forbidden", collab.Forbidden("no"), http.StatusForbidden, ErrCodeForbidden},
		{"wrapped kind", fmt.Errorf("outer: %w", collab.Forbidden("no")), http.StatusForbidden, ErrCodeForbidden},
		{"store not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"existing api error", invalid(errors.New("x"), ErrCodeInvalidRole), http.StatusBadRequest, ErrCodeInvalidRole},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeStoreFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asHTTPError(tt.err)
			if got.status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, got.status)
			}
			if got.errCode != tt.code {
				t.Fatalf("expected code %d, got %d", tt.code, got.errCode)
			}
		})
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	w := httptest.NewRecorder()
	env.srv.writeError(w, req, errors.New("sqlite: database is locked"))

	var errResp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusInternalServerError || errResp.Error != "internal error" {
		t.Fatalf("unexpected response %d %+v", w.Code, errResp)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, "https://app.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/v1/tasks", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected allowed origin header, got %q (status %d)", got, w.Code)
	}
	if w.Code == http.StatusUnauthorized {
		t.Fatal("preflight should not require auth")
	}

	req = httptest.NewRequest(http.MethodOptions, "/v1/tasks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin for foreign origin: %q", got)
	}
}

func TestInvitationSweeperRunsUntilCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.srv.sweepInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.srv.runInvitationSweeper(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)
	handler := env.srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, alice))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	generated := w.Header().Get(requestIDHeader)
	if len(generated) != 36 {
		t.Fatalf("expected a generated request id, got %q", generated)
	}

	const supplied = "7d0f9c3e-2b1a-4c5d-8e6f-0a1b2c3d4e5f"
	req = httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, alice))
	req.Header.Set(requestIDHeader, supplied)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != supplied {
		t.Fatalf("expected supplied request id to be echoed, got %q", got)
	}
}
