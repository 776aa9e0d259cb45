package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"remind-push/pkg/models"
)

// ReminderType tags the data payload of every scheduled reminder push.
const ReminderType = "appointment_reminder"

// ErrRunInProgress is returned by Run when a previous scan pass has not
// finished yet. The caller should skip the trigger, not queue it.
var ErrRunInProgress = errors.New("scan run already in progress")

// Store is the record-store capability the scanner consumes.
type Store interface {
	AppointmentsByDueRange(ctx context.Context, start, end time.Time, limit int) ([]models.Appointment, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Sender delivers one notification to a device token.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}

// Outcome classifies what happened to one appointment during a scan pass.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeNoRecipient
	OutcomeNotEligible
	OutcomeSendFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeNoRecipient:
		return "skipped_no_recipient"
	case OutcomeNotEligible:
		return "skipped_not_eligible"
	case OutcomeSendFailed:
		return "failed_send"
	default:
		return "unknown"
	}
}

// Summary aggregates the outcomes of one scan pass.
type Summary struct {
	Matched            int `json:"matched"`
	Sent               int `json:"sent"`
	SkippedNoRecipient int `json:"skipped_no_recipient"`
	SkippedNotEligible int `json:"skipped_not_eligible"`
	Failed             int `json:"failed"`
}

// Scanner runs the periodic reminder pass: find appointments due today and
// tomorrow, resolve each owner's device token and send one push per
// appointment.
type Scanner struct {
	store   Store
	sender  Sender
	loc     *time.Location
	limit   int
	running atomic.Bool

	lastMu sync.RWMutex
	last   Summary
}

// LastSummary returns the outcome counts of the most recent completed pass.
func (s *Scanner) LastSummary() Summary {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last
}

func NewScanner(store Store, sender Sender, loc *time.Location, limit int) *Scanner {
	if loc == nil {
		loc = time.Local
	}
	if limit <= 0 {
		limit = 500
	}
	return &Scanner{store: store, sender: sender, loc: loc, limit: limit}
}

// Run executes one full reminder pass relative to now. A window-query failure
// aborts the run; every per-appointment failure is contained and the pass
// continues. Overlapping invocations are rejected with ErrRunInProgress, which
// together with the trigger-level skip keeps a record from being dispatched
// twice for the same offset. There is no persisted ledger: an appointment
// still inside a window on the next scheduled run is re-evaluated, giving
// at-least-once semantics at scan-cadence granularity.
func (s *Scanner) Run(ctx context.Context, now time.Time) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	now = now.In(s.loc)
	today, tomorrow := WindowsFor(now)

	dueToday, err := s.store.AppointmentsByDueRange(ctx, today.Start, today.End, s.limit)
	if err != nil {
		return Summary{}, fmt.Errorf("querying today's appointments: %w", err)
	}

	dueTomorrow, err := s.store.AppointmentsByDueRange(ctx, tomorrow.Start, tomorrow.End, s.limit)
	if err != nil {
		return Summary{}, fmt.Errorf("querying tomorrow's appointments: %w", err)
	}

	// The windows are disjoint, but a retried or overlapping query must never
	// dispatch the same appointment twice in one pass.
	seen := make(map[int64]bool, len(dueToday)+len(dueTomorrow))
	var summary Summary

	for _, appt := range append(dueToday, dueTomorrow...) {
		if seen[appt.ID] {
			continue
		}
		seen[appt.ID] = true
		summary.Matched++

		switch s.process(ctx, appt, now) {
		case OutcomeSent:
			summary.Sent++
		case OutcomeNoRecipient:
			summary.SkippedNoRecipient++
		case OutcomeNotEligible:
			summary.SkippedNotEligible++
		case OutcomeSendFailed:
			summary.Failed++
		}
	}

	s.lastMu.Lock()
	s.last = summary
	s.lastMu.Unlock()

	log.Printf("⏰ Reminder pass done: matched=%d sent=%d no_recipient=%d not_eligible=%d failed=%d",
		summary.Matched, summary.Sent, summary.SkippedNoRecipient, summary.SkippedNotEligible, summary.Failed)

	return summary, nil
}

// process handles a single appointment. All failures stay inside this call.
func (s *Scanner) process(ctx context.Context, appt models.Appointment, now time.Time) Outcome {
	user, err := s.store.UserByID(ctx, appt.UserID)
	if err != nil {
		log.Printf("⚠️  No user for appointment %d (user %d): %v", appt.ID, appt.UserID, err)
		return OutcomeNoRecipient
	}

	if user.FCMToken == "" {
		log.Printf("⚠️  No device token for user %d", user.ID)
		return OutcomeNoRecipient
	}

	// Recompute the offset from the due date itself. The windowed query should
	// already guarantee 0 or 1, but the message choice must not trust it.
	offset := DaysUntil(appt.DueAt, now)

	var title, body string
	switch offset {
	case 0:
		title = "Appointment Today!"
		body = fmt.Sprintf("Your %q appointment is today.", appt.Note)
	case 1:
		title = "Appointment Tomorrow!"
		body = fmt.Sprintf("Your %q appointment is tomorrow.", appt.Note)
	default:
		return OutcomeNotEligible
	}

	data := map[string]string{
		"appointmentId": strconv.FormatInt(appt.ID, 10),
		"type":          ReminderType,
	}

	if _, err := s.sender.Send(ctx, user.FCMToken, title, body, data); err != nil {
		log.Printf("❌ Push failed for appointment %d (user %d): %v", appt.ID, user.ID, err)
		return OutcomeSendFailed
	}

	log.Printf("📲 Reminder sent: appointment %d to user %d (%s)", appt.ID, user.ID, title)
	return OutcomeSent
}
