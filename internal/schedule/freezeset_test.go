package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/internal/models"
)

func TestIsFrozenBoundsInclusive(t *testing.T) {
	end := day(2024, time.February, 29)
	fs := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.February, 1), &end)})

	assert.False(t, fs.IsFrozen(day(2024, time.January, 31)))
	assert.True(t, fs.IsFrozen(day(2024, time.February, 1)))
	assert.True(t, fs.IsFrozen(day(2024, time.February, 29)))
	assert.False(t, fs.IsFrozen(day(2024, time.March, 1)))
}

func TestIsFrozenIndefinite(t *testing.T) {
	fs := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.February, 1), nil)})

	assert.False(t, fs.IsFrozen(day(2024, time.January, 31)))
	assert.True(t, fs.IsFrozen(day(2024, time.February, 1)))
	assert.True(t, fs.IsFrozen(day(2030, time.December, 31)))
}

func TestIsFrozenIgnoresTimeOfDay(t *testing.T) {
	end := day(2024, time.February, 29)
	fs := NewFreezeSet([]models.FreezeInterval{freeze(day(2024, time.February, 1), &end)})

	assert.True(t, fs.IsFrozen(time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC)))
}

func TestOpenReturnsEarliestOpenInterval(t *testing.T) {
	end := day(2024, time.January, 31)
	intervals := []models.FreezeInterval{
		{ID: "a", StartDate: day(2024, time.January, 1), EndDate: &end},
		{ID: "b", StartDate: day(2024, time.March, 1)},
		{ID: "c", StartDate: day(2024, time.February, 1)},
	}
	open := NewFreezeSet(intervals).Open()
	require.NotNil(t, open)
	assert.Equal(t, "c", open.ID)
}

func TestOpenNilWhenAllClosed(t *testing.T) {
	end := day(2024, time.January, 31)
	fs := NewFreezeSet([]models.FreezeInterval{{ID: "a", StartDate: day(2024, time.January, 1), EndDate: &end}})
	assert.Nil(t, fs.Open())
}
