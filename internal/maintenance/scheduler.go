// Package maintenance runs the recurring cleanup jobs.
package maintenance

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRetention is how long soft-deleted rows stay recoverable before
// the nightly purge removes them for good.
const DefaultRetention = 30 * 24 * time.Hour

// Purger permanently removes soft-deleted rows past the retention window.
type Purger interface {
	PurgeDeleted(ctx context.Context, retention time.Duration) (int64, error)
}

type Scheduler struct {
	cron      *cron.Cron
	diagrams  Purger
	projects  Purger
	retention time.Duration
}

func NewScheduler(diagrams, projects Purger, retention time.Duration) *Scheduler {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		diagrams:  diagrams,
		projects:  projects,
		retention: retention,
	}
}

// Start registers the nightly purge and launches the cron loop.
func (s *Scheduler) Start() error {
	// 03:10 server time, after the backup window
	_, err := s.cron.AddFunc("0 10 3 * * *", s.runPurge)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Println("maintenance scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("maintenance scheduler stopped")
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if n, err := s.diagrams.PurgeDeleted(ctx, s.retention); err != nil {
		log.Printf("purge diagrams failed: %v", err)
	} else if n > 0 {
		log.Printf("purged %d deleted diagrams", n)
	}

	if n, err := s.projects.PurgeDeleted(ctx, s.retention); err != nil {
		log.Printf("purge projects failed: %v", err)
	} else if n > 0 {
		log.Printf("purged %d deleted projects", n)
	}
}
