package notify

import (
	"context"
	"log/slog"
	"time"

	"taskcollab/internal/models"
)

// DefaultPollInterval matches the refresh period of interactive clients.
const DefaultPollInterval = 30 * time.Second

// FetchFunc returns the current notification list for the polling user.
type FetchFunc func(ctx context.Context) ([]models.Notification, error)

// Poller repeatedly fetches notifications and reports the ones it has not seen.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   *slog.Logger
	seen     map[string]struct{}
}

// NewPoller constructs a Poller. Non-positive intervals use DefaultPollInterval.
func NewPoller(fetch FetchFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		logger:   slog.Default().With("component", "notify.poller"),
		seen:     make(map[string]struct{}),
	}
}

// Run polls until ctx is cancelled. The first fetch happens immediately.
// When skipExisting is set, notifications present on the first fetch are
// recorded as seen without being reported.
func (p *Poller) Run(ctx context.Context, skipExisting bool, onNew func([]models.Notification)) error {
	first := true
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		fresh, err := p.poll(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			p.logger.Warn("notification poll failed", "error", err)
		case len(fresh) > 0 && !(first && skipExisting):
			onNew(fresh)
		}
		first = false

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) ([]models.Notification, error) {
	notifications, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	fresh := make([]models.Notification, 0)
	for _, n := range notifications {
		if _, ok := p.seen[n.ID]; ok {
			continue
		}
		p.seen[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}
	return fresh, nil
}
