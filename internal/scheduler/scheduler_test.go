package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workqueue-dev/workqueue/internal/models"
)

type memStore struct {
	mu          sync.Mutex
	assignments []models.Assignment
	audience    map[string][]models.User
	marked      map[uint][]models.WarningRecipient
}

func newMemStore() *memStore {
	return &memStore{
		audience: make(map[string][]models.User),
		marked:   make(map[uint][]models.WarningRecipient),
	}
}

func (m *memStore) DueUnwarned(ctx context.Context, from, to time.Time) ([]models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.WarningEmailSent {
			continue
		}
		if !a.Deadline.Before(from) && !a.Deadline.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Audience(ctx context.Context, label string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audience[label], nil
}

func (m *memStore) MarkWarned(ctx context.Context, id uint, recipients []models.WarningRecipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked[id] = recipients
	for i := range m.assignments {
		if m.assignments[i].ID == id {
			m.assignments[i].WarningEmailSent = true
		}
	}
	return nil
}

type recordingMailer struct {
	mu       sync.Mutex
	sent     []string
	subjects []string
	failFor  map[string]bool
}

func (r *recordingMailer) Send(ctx context.Context, to, subject, text, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[to] {
		return errors.New("mailbox unavailable")
	}
	r.sent = append(r.sent, to)
	r.subjects = append(r.subjects, subject)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func assignment(id uint, label string, deadline time.Time) models.Assignment {
	a := models.Assignment{
		Admin:    "Dr. Reed",
		Title:    "Problem Set 3",
		Label:    label,
		Deadline: deadline,
	}
	a.ID = id
	return a
}

func student(id uint, email string) models.User {
	u := models.User{Name: "Student", Email: email, Role: models.RoleStudent}
	u.ID = id
	return u
}

func TestRunOnceWarnsExactlyOnce(t *testing.T) {
	now := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.assignments = []models.Assignment{assignment(1, "CS101", now.Add(23*time.Hour+30*time.Minute))}
	store.audience["CS101"] = []models.User{student(10, "a@example.edu")}
	mailer := &recordingMailer{}

	s := New(store, mailer, WithClock(fixedClock(now)))

	require.NoError(t, s.RunOnce(context.Background()))
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, []string{"a@example.edu"}, mailer.sent, "second pass must not resend")
	require.Len(t, store.marked[1], 1)
	assert.Equal(t, uint(10), store.marked[1][0].UserID)
	assert.Equal(t, now, store.marked[1][0].SentAt)
}

func TestRunOncePartialSendFailuresStillMark(t *testing.T) {
	now := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.assignments = []models.Assignment{assignment(1, "CS101", now.Add(23*time.Hour+30*time.Minute))}

	var audience []models.User
	for i, email := range []string{"a@x.edu", "b@x.edu", "c@x.edu", "d@x.edu", "e@x.edu"} {
		audience = append(audience, student(uint(i+1), email))
	}
	store.audience["CS101"] = audience

	mailer := &recordingMailer{failFor: map[string]bool{
		"b@x.edu": true, "c@x.edu": true, "e@x.edu": true,
	}}

	s := New(store, mailer, WithClock(fixedClock(now)))

	require.NoError(t, s.RunOnce(context.Background()))

	assert.ElementsMatch(t, []string{"a@x.edu", "d@x.edu"}, mailer.sent)
	// Every attempted recipient is recorded, failures included.
	require.Len(t, store.marked[1], 5)
	assert.True(t, store.assignments[0].WarningEmailSent)
}

func TestRunOnceWindowBoundaries(t *testing.T) {
	now := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		warned   bool
	}{
		{"inside the band", now.Add(23*time.Hour + 1*time.Minute), true},
		{"lower edge", now.Add(23 * time.Hour), true},
		{"upper edge", now.Add(24 * time.Hour), true},
		{"too close", now.Add(22*time.Hour + 59*time.Minute), false},
		{"too far", now.Add(24*time.Hour + 1*time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.assignments = []models.Assignment{assignment(1, "CS101", tt.deadline)}
			store.audience["CS101"] = []models.User{student(10, "a@example.edu")}
			mailer := &recordingMailer{}

			s := New(store, mailer, WithClock(fixedClock(now)))

			require.NoError(t, s.RunOnce(context.Background()))

			if tt.warned {
				assert.Len(t, mailer.sent, 1)
			} else {
				assert.Empty(t, mailer.sent)
			}
		})
	}
}

func TestRunOnceEmptyAudienceLeavesUnmarked(t *testing.T) {
	now := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.assignments = []models.Assignment{assignment(1, "GHOST", now.Add(23*time.Hour+30*time.Minute))}
	mailer := &recordingMailer{}

	s := New(store, mailer, WithClock(fixedClock(now)))

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Empty(t, mailer.sent)
	assert.False(t, store.assignments[0].WarningEmailSent, "an unreachable audience must stay retryable")
}

func TestReminderSubject(t *testing.T) {
	now := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.assignments = []models.Assignment{assignment(1, "CS101", now.Add(23*time.Hour+30*time.Minute))}
	store.audience["CS101"] = []models.User{student(10, "a@example.edu")}
	mailer := &recordingMailer{}

	s := New(store, mailer, WithClock(fixedClock(now)))

	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, mailer.subjects, 1)
	assert.Equal(t, "Deadline Reminder: Problem Set 3 - Due in 24 Hours", mailer.subjects[0])
}

func TestStartStop(t *testing.T) {
	store := newMemStore()
	mailer := &recordingMailer{}

	s := New(store, mailer, WithInterval(10*time.Millisecond))
	s.Start()
	time.Sleep(35 * time.Millisecond)
	s.Stop()
}

func TestReminderBodyMentionsDeadline(t *testing.T) {
	a := assignment(1, "CS101", time.Date(2026, time.September, 11, 15, 0, 0, 0, time.UTC))

	text := reminderText("Ada", &a, "Sep 11, 2026 3:00 PM", "23 hours and 30 minutes")

	assert.True(t, strings.Contains(text, "Ada"))
	assert.True(t, strings.Contains(text, "Problem Set 3"))
	assert.True(t, strings.Contains(text, "Sep 11, 2026 3:00 PM"))
	assert.True(t, strings.Contains(text, "23 hours and 30 minutes"))
}
