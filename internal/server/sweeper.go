package server

import (
	"context"
	"time"
)

// runInvitationSweeper expires stale invitations every sweepInterval until ctx is done.
func (s *Server) runInvitationSweeper(ctx context.Context) {
	if s.sweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		s.sweepInvitations(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) sweepInvitations(ctx context.Context) {
	expired, err := s.collab.ExpireInvitations(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log().Error("invitation sweep failed", "error", err)
		}
		return
	}
	if expired > 0 {
		s.log().Debug("invitation sweep", "expired", expired)
	}
}
