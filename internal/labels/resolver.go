package labels

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/workqueue-dev/workqueue/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLabelExists  = errors.New("label already exists")
	ErrLabelMissing = errors.New("label not found")
)

// UserStore is the persistence surface the resolver needs.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// SaveUserLabels replaces the label set and clears the legacy
	// single-label field in the same write.
	SaveUserLabels(ctx context.Context, id uint, labels []string) error
}

// Resolver computes a user's effective label set across the two
// coexisting schema generations, folding the deprecated single-label
// field into the labels array the first time a record is touched.
type Resolver struct {
	users UserStore
}

func NewResolver(users UserStore) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the user's labels. A populated labels array wins
// outright. Otherwise a legacy single label is migrated in place. As a
// last resort the label set from a previously issued credential (cached)
// is used. The result never contains duplicates or blank entries.
func (r *Resolver) Resolve(ctx context.Context, userID uint, cached []string) ([]string, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.Labels) > 0 {
		return dedupe(user.Labels), nil
	}

	if strings.TrimSpace(user.LegacyLabel) != "" {
		migrated := dedupe([]string{user.LegacyLabel})
		if err := r.users.SaveUserLabels(ctx, userID, migrated); err != nil {
			// A failed migration write must not abort the read; the caller
			// still gets the best-known label set.
			log.Printf("Migrating labels for user %d failed: %v", userID, err)
		}
		return migrated, nil
	}

	return dedupe(cached), nil
}

// AddLabel appends label to the user's resolved set and persists it.
// A label already present is rejected with ErrLabelExists rather than
// silently deduped, so callers can surface the conflict.
func (r *Resolver) AddLabel(ctx context.Context, userID uint, cached []string, label string) ([]string, error) {
	current, err := r.Resolve(ctx, userID, cached)
	if err != nil {
		return nil, err
	}

	for _, l := range current {
		if l == label {
			return nil, ErrLabelExists
		}
	}

	updated := append(current, label)
	if err := r.users.SaveUserLabels(ctx, userID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveLabel drops label from the user's resolved set and persists the
// remainder. Removing a label the user does not carry is ErrLabelMissing.
func (r *Resolver) RemoveLabel(ctx context.Context, userID uint, cached []string, label string) ([]string, error) {
	current, err := r.Resolve(ctx, userID, cached)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(current))
	for _, l := range current {
		if l != label {
			kept = append(kept, l)
		}
	}

	if len(kept) == len(current) {
		return nil, ErrLabelMissing
	}

	if err := r.users.SaveUserLabels(ctx, userID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// dedupe drops duplicate and blank entries, preserving first-seen order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, label := range in {
		if strings.TrimSpace(label) == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
