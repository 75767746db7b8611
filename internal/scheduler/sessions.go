package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// SessionCleanupJobID identifies the job purging expired sessions.
const SessionCleanupJobID = "session-cleanup"

// SessionPurger deletes sessions that can no longer be used.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// AddSessionCleanup registers the job removing expired and revoked sessions.
func (s *Scheduler) AddSessionCleanup(db SessionPurger, interval time.Duration) error {
	return s.AddIntervalJob(SessionCleanupJobID, "Purge expired sessions", interval, func(ctx context.Context) error {
		n, err := db.DeleteExpiredSessions(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("Purged sessions", "count", n)
		}
		return nil
	})
}
