package labels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLabelSource struct {
	stored []string
}

func (f *fakeLabelSource) CountExact(ctx context.Context, labels []string) (int64, error) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	var n int64
	for _, s := range f.stored {
		if want[s] {
			n++
		}
	}
	return n, nil
}

func (f *fakeLabelSource) DistinctLabels(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool, len(f.stored))
	var out []string
	for _, s := range f.stored {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func TestMatchLabelsEmptyInput(t *testing.T) {
	_, err := MatchLabels(context.Background(), nil, &fakeLabelSource{stored: []string{"CS101"}})

	assert.ErrorIs(t, err, ErrNoLabels)
}

func TestMatchLabelsExactTakesPrecedence(t *testing.T) {
	// "CS101" exists verbatim, so the sloppy variant "cs101 " must not be
	// pulled in via the case-insensitive path.
	src := &fakeLabelSource{stored: []string{"CS101", "cs101 ", "MATH200"}}

	got, err := MatchLabels(context.Background(), []string{"CS101"}, src)

	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, got)
}

func TestMatchLabelsFallsBackToNormalized(t *testing.T) {
	// No exact hit; the trimmed case-folded comparison should surface the
	// stored variant so the follow-up query uses the value as stored.
	src := &fakeLabelSource{stored: []string{"cs101 ", "MATH200"}}

	got, err := MatchLabels(context.Background(), []string{"Cs101"}, src)

	require.NoError(t, err)
	assert.Equal(t, []string{"cs101 "}, got)
}

func TestMatchLabelsNoMatch(t *testing.T) {
	src := &fakeLabelSource{stored: []string{"MATH200"}}

	got, err := MatchLabels(context.Background(), []string{"CS101"}, src)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatchLabelsMultipleFallbackVariants(t *testing.T) {
	src := &fakeLabelSource{stored: []string{"cs101 ", " CS101", "PHY300"}}

	got, err := MatchLabels(context.Background(), []string{"cs101"}, src)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cs101 ", " CS101"}, got)
}
