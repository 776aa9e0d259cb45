package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"remind-push/internal/reminder"
)

// Scheduler fires the reminder scan on a cron cadence. A firing that overlaps
// a still-running pass is skipped, never queued, so the scan interval may be
// shorter than the worst-case pass duration without double-dispatching.
type Scheduler struct {
	cron    *cron.Cron
	scanner *reminder.Scanner
	loc     *time.Location
}

func New(schedule string, scanner *reminder.Scanner, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	s := &Scheduler{cron: c, scanner: scanner, loc: loc}

	if _, err := c.AddFunc(schedule, s.runPass); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("⏰ Reminder scheduler started")
}

// Stop halts the cron runner and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Reminder scheduler stopped")
}

func (s *Scheduler) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Println("🔍 Reminder check started")

	if _, err := s.scanner.Run(ctx, time.Now().In(s.loc)); err != nil {
		if errors.Is(err, reminder.ErrRunInProgress) {
			log.Println("⚠️  Previous reminder pass still running, skipping")
			return
		}
		log.Printf("❌ Reminder pass failed: %v", err)
	}
}
