package collab

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskcollab/internal/blobstore"
	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

// Publisher receives notifications as they are created.
type Publisher interface {
	Publish(notification models.Notification)
}

// TaskRef identifies the task an invitation is about.
type TaskRef struct {
	ID    string
	Title string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher forwards every created notification to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithInvitationTTL changes how long new invitations stay acceptable.
func WithInvitationTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.invitationTTL = ttl
		}
	}
}

// WithBlobStore enables file attachments on comments, stored in blobs.
func WithBlobStore(blobs blobstore.Store) Option {
	return func(s *Service) {
		s.blobs = blobs
	}
}

// Service orchestrates invitations, comments, reviews, activity and notifications.
// Mutating operations are serialised; queries read straight from the store.
type Service struct {
	store         store.CollabStore
	now           func() time.Time
	logger        *slog.Logger
	publisher     Publisher
	invitationTTL time.Duration
	blobs         blobstore.Store

	mu sync.Mutex
}

// NewService constructs a Service over st.
func NewService(st store.CollabStore, opts ...Option) *Service {
	s := &Service{
		store:         st,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        slog.Default().With("component", "collab"),
		invitationTTL: models.InvitationTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logActivity(ctx context.Context, activity models.Activity) error {
	id, err := store.GenerateID(store.PrefixActivity)
	if err != nil {
		return err
	}
	activity.ID = id
	activity.CreatedAt = s.now()
	if err := s.store.CreateActivity(ctx, &activity); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	s.logger.Debug("activity logged", "task_id", activity.TaskID, "type", activity.Type, "user_id", activity.UserID)
	return nil
}

func (s *Service) notify(ctx context.Context, notification models.Notification) error {
	id, err := store.GenerateID(store.PrefixNotification)
	if err != nil {
		return err
	}
	notification.ID = id
	notification.Read = false
	notification.CreatedAt = s.now()
	if err := s.store.CreateNotification(ctx, &notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	s.logger.Debug("notification created", "user_id", notification.UserID, "type", notification.Type)
	if s.publisher != nil {
		s.publisher.Publish(notification)
	}
	return nil
}

// displayName picks the name shown in activity records.
func displayName(actor models.Actor) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	if actor.Email != "" {
		return emailLocalPart(actor.Email)
	}
	return actor.ID
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Identities returns the non-empty keys under which an actor may be addressed.
// The email is normalised the same way invitations store it.
func Identities(actor models.Actor) []string {
	out := make([]string, 0, 2)
	if actor.ID != "" {
		out = append(out, actor.ID)
	}
	if email := normalizeEmail(actor.Email); email != "" && email != actor.ID {
		out = append(out, email)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireActor(actor models.Actor) error {
	if strings.TrimSpace(actor.ID) == "" {
		return InvalidArgument("user id is required")
	}
	return nil
}

func requireID(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return InvalidArgument("%s is required", name)
	}
	return nil
}
