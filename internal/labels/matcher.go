package labels

import (
	"context"
	"errors"
	"strings"
)

// ErrNoLabels is returned when a caller supplies an empty label set.
var ErrNoLabels = errors.New("at least one label is required")

// LabelSource exposes the label index of one content collection.
type LabelSource interface {
	CountExact(ctx context.Context, labels []string) (int64, error)
	DistinctLabels(ctx context.Context) ([]string, error)
}

// MatchLabels selects the stored label values matching userLabels. Exact
// values take precedence: when any exact match exists, only the user's
// own labels are returned as the query set. Otherwise the collection's
// distinct labels are compared with surrounding whitespace trimmed and
// case ignored, tolerating operator-entered label variants without a
// content migration. An empty result means nothing matches.
func MatchLabels(ctx context.Context, userLabels []string, src LabelSource) ([]string, error) {
	if len(userLabels) == 0 {
		return nil, ErrNoLabels
	}

	n, err := src.CountExact(ctx, userLabels)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return userLabels, nil
	}

	distinct, err := src.DistinctLabels(ctx)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]bool, len(userLabels))
	for _, label := range userLabels {
		normalized[normalizeLabel(label)] = true
	}

	var matched []string
	for _, stored := range distinct {
		if normalized[normalizeLabel(stored)] {
			matched = append(matched, stored)
		}
	}
	return matched, nil
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
