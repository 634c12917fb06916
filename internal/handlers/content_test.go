package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadlineDateOnly(t *testing.T) {
	got, hasTime, err := parseDeadline("2026-09-10", "")

	require.NoError(t, err)
	assert.False(t, hasTime)

	h, m, s := got.Clock()
	assert.Equal(t, [3]int{23, 59, 59}, [3]int{h, m, s}, "date-only deadlines land on end of day")
	y, mo, d := got.Date()
	assert.Equal(t, 2026, y)
	assert.Equal(t, "September", mo.String())
	assert.Equal(t, 10, d)
}

func TestParseDeadlineWithTimeField(t *testing.T) {
	got, hasTime, err := parseDeadline("2026-09-10", "14:30")

	require.NoError(t, err)
	assert.True(t, hasTime)

	h, m, _ := got.Clock()
	assert.Equal(t, 14, h)
	assert.Equal(t, 30, m)
}

func TestParseDeadlineTimestamp(t *testing.T) {
	got, hasTime, err := parseDeadline("2026-09-10T09:15", "")

	require.NoError(t, err)
	assert.True(t, hasTime)

	h, m, _ := got.Clock()
	assert.Equal(t, 9, h)
	assert.Equal(t, 15, m)
}

func TestParseDeadlineInvalid(t *testing.T) {
	_, _, err := parseDeadline("next tuesday", "")
	assert.Error(t, err)

	_, _, err = parseDeadline("2026-09-10", "half past two")
	assert.Error(t, err)
}
