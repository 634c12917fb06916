package labels

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workqueue-dev/workqueue/internal/models"
)

type fakeUserStore struct {
	users    map[uint]*models.User
	saveErr  error
	saves    int
	lastSave []string
}

func (f *fakeUserStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) SaveUserLabels(ctx context.Context, id uint, labels []string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.lastSave = labels
	u := f.users[id]
	u.Labels = labels
	u.LegacyLabel = ""
	return nil
}

func TestResolvePrefersLabelsArray(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {Labels: []string{"CS101", "MATH200"}, LegacyLabel: "OLD"},
	}}

	got, err := NewResolver(store).Resolve(context.Background(), 1, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MATH200"}, got)
	assert.Zero(t, store.saves, "array-backed users must not be rewritten")
}

func TestResolveMigratesLegacyLabel(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {LegacyLabel: "CS101"},
	}}
	resolver := NewResolver(store)

	got, err := resolver.Resolve(context.Background(), 1, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, got)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, []string{"CS101"}, store.lastSave)
	assert.Empty(t, store.users[1].LegacyLabel, "legacy field must be cleared by the migration write")

	// A second resolve sees the migrated array and changes nothing.
	got, err = resolver.Resolve(context.Background(), 1, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, got)
	assert.Equal(t, 1, store.saves, "migration must run at most once")
}

func TestResolveSurvivesFailedMigrationWrite(t *testing.T) {
	store := &fakeUserStore{
		users:   map[uint]*models.User{1: {LegacyLabel: "CS101"}},
		saveErr: errors.New("connection reset"),
	}

	got, err := NewResolver(store).Resolve(context.Background(), 1, nil)

	require.NoError(t, err, "a failed migration write must not abort the read")
	assert.Equal(t, []string{"CS101"}, got)
}

func TestResolveFallsBackToCachedLabels(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{1: {}}}

	got, err := NewResolver(store).Resolve(context.Background(), 1, []string{"CS101", "CS101", ""})

	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, got)
}

func TestResolveUnknownUser(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{}}

	_, err := NewResolver(store).Resolve(context.Background(), 42, nil)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddLabelRejectsDuplicate(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {Labels: []string{"CS101"}},
	}}

	_, err := NewResolver(store).AddLabel(context.Background(), 1, nil, "CS101")

	assert.ErrorIs(t, err, ErrLabelExists)
	assert.Zero(t, store.saves, "a rejected add must not write")
}

func TestAddLabelRejectsDuplicateFromLegacy(t *testing.T) {
	// The duplicate check runs against the resolved set, so a label still
	// sitting in the legacy field also counts as present.
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {LegacyLabel: "CS101"},
	}}

	_, err := NewResolver(store).AddLabel(context.Background(), 1, nil, "CS101")

	assert.ErrorIs(t, err, ErrLabelExists)
}

func TestAddLabelAppendsAndPersists(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {Labels: []string{"CS101"}},
	}}

	got, err := NewResolver(store).AddLabel(context.Background(), 1, nil, "MATH200")

	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MATH200"}, got)
	assert.Equal(t, []string{"CS101", "MATH200"}, store.lastSave)
}

func TestRemoveLabelMissing(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {Labels: []string{"CS101"}},
	}}

	_, err := NewResolver(store).RemoveLabel(context.Background(), 1, nil, "MATH200")

	assert.ErrorIs(t, err, ErrLabelMissing)
	assert.Zero(t, store.saves, "a rejected remove must not write")
}

func TestRemoveLabelPersistsRemainder(t *testing.T) {
	store := &fakeUserStore{users: map[uint]*models.User{
		1: {Labels: []string{"CS101", "MATH200"}},
	}}

	got, err := NewResolver(store).RemoveLabel(context.Background(), 1, nil, "CS101")

	require.NoError(t, err)
	assert.Equal(t, []string{"MATH200"}, got)
	assert.Equal(t, []string{"MATH200"}, store.lastSave)
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"preserves order", []string{"b", "a", "b", "c"}, []string{"b", "a", "c"}},
		{"drops blanks", []string{"", "  ", "a"}, []string{"a"}},
		{"empty input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupe(tt.in))
		})
	}
}
