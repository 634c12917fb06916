package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/workqueue-dev/workqueue/internal/deadlines"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/services/mail"
)

const (
	// Reminder window: deadlines between 23 and 24 hours out. The band is
	// as wide as the tick period so an assignment is seen exactly once
	// across the hourly cadence.
	windowStart = 23 * time.Hour
	windowEnd   = 24 * time.Hour

	defaultInterval = time.Hour
	tickTimeout     = 5 * time.Minute
)

// Store is the persistence surface one reminder pass needs.
type Store interface {
	// DueUnwarned returns assignments with a deadline in [from, to] whose
	// warning has not been sent.
	DueUnwarned(ctx context.Context, from, to time.Time) ([]models.Assignment, error)
	// Audience returns the users subscribed to a cohort label.
	Audience(ctx context.Context, label string) ([]models.User, error)
	// MarkWarned flips the warning flag and records the attempted
	// recipients in a single atomic row update.
	MarkWarned(ctx context.Context, assignmentID uint, recipients []models.WarningRecipient) error
}

// Scheduler owns the recurring deadline scan. One instance runs per
// process; ticks are sequential, never stacked.
type Scheduler struct {
	store  Store
	mailer mail.Mailer

	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Scheduler)

// WithInterval overrides the hourly tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(store Store, mailer mail.Mailer, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		store:    store,
		mailer:   mailer,
		interval: defaultInterval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the recurring deadline scan.
func (s *Scheduler) Start() {
	log.Println("Starting reminder scheduler...")
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the scan loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	log.Println("Stopping reminder scheduler...")
	s.cancel()
	s.wg.Wait()
	log.Println("Reminder scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			// Guard each pass so a hung query cannot stack ticks.
			ctx, cancel := context.WithTimeout(s.ctx, tickTimeout)
			if err := s.RunOnce(ctx); err != nil {
				log.Printf("Reminder scan failed: %v", err)
			}
			cancel()
		}
	}
}

// RunOnce performs one scan pass: find due-soon unwarned assignments and
// remind their audiences. It is also the manual-trigger entry point.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.now()
	from, to := now.Add(windowStart), now.Add(windowEnd)

	candidates, err := s.store.DueUnwarned(ctx, from, to)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	log.Printf("Found %d assignments with upcoming deadlines", len(candidates))

	for i := range candidates {
		s.remind(ctx, &candidates[i])
	}
	return nil
}

// remind resolves one assignment's audience, dispatches the reminder to
// every member concurrently, and marks the assignment warned. Send
// failures are isolated per recipient and do not block marking; an empty
// audience leaves the assignment unmarked so a later pass retries it.
func (s *Scheduler) remind(ctx context.Context, a *models.Assignment) {
	users, err := s.store.Audience(ctx, a.Label)
	if err != nil {
		log.Printf("Resolving audience for assignment %d: %v", a.ID, err)
		return
	}
	if len(users) == 0 {
		log.Printf("No users found with label %q, skipping assignment %d", a.Label, a.ID)
		return
	}

	now := s.now()
	recipients := make([]models.WarningRecipient, len(users))
	errs := make([]error, len(users))

	var wg sync.WaitGroup
	for i := range users {
		recipients[i] = models.WarningRecipient{UserID: users[i].ID, SentAt: now}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.sendReminder(ctx, &users[i], a, now)
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	log.Printf("Reminder emails for assignment %d: %d sent, %d failed", a.ID, len(users)-failed, failed)

	// Warned means attempted: the flag flips even when some sends failed,
	// trading redelivery for never double-notifying.
	if err := s.store.MarkWarned(ctx, a.ID, recipients); err != nil {
		log.Printf("Marking assignment %d warned: %v", a.ID, err)
	}
}

func (s *Scheduler) sendReminder(ctx context.Context, user *models.User, a *models.Assignment, now time.Time) error {
	hasTime := true
	if a.HasTimeComponent != nil {
		hasTime = *a.HasTimeComponent
	} else {
		hasTime = deadlines.HasExplicitTime(a.Deadline)
	}

	formatted := deadlines.FormatDeadline(a.Deadline, hasTime)
	remaining := deadlines.TimeRemaining(a.Deadline, now)

	subject := "Deadline Reminder: " + a.Title + " - Due in 24 Hours"
	text := reminderText(user.Name, a, formatted, remaining)
	html := reminderHTML(user.Name, a, formatted, remaining)

	if err := s.mailer.Send(ctx, user.Email, subject, text, html); err != nil {
		log.Printf("Reminder email to %s failed: %v", user.Email, err)
		return err
	}
	return nil
}

// Global scheduler instance
var globalScheduler *Scheduler

// Initialize creates and starts the global scheduler.
func Initialize(store Store, mailer mail.Mailer) {
	globalScheduler = New(store, mailer)
	globalScheduler.Start()
}

// Shutdown stops the global scheduler.
func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
	}
}

// TriggerScan runs one synchronous scan pass on the global scheduler.
func TriggerScan(ctx context.Context) error {
	if globalScheduler == nil {
		return errors.New("scheduler not running")
	}
	return globalScheduler.RunOnce(ctx)
}
