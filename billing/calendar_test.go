package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpulse/agency-engine/billing"
)

func day(y int, m time.Month, d int) billing.Day {
	return billing.NewDay(y, m, d)
}

func TestParseDay_Valid(t *testing.T) {
	d, err := billing.ParseDay("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 15, d.DayOfMonth())
}

func TestParseDay_Invalid(t *testing.T) {
	_, err := billing.ParseDay("15/01/2024")
	assert.ErrorIs(t, err, billing.ErrInvalidDate)
}

func TestDayOf_TruncatesTimeOfDay(t *testing.T) {
	// GIVEN: A timestamp at 23:59 local time
	// WHEN: Truncated to a Day
	// THEN: It equals the plain calendar date
	late := time.Date(2024, time.March, 5, 23, 59, 59, 0, time.UTC)
	assert.True(t, billing.DayOf(late).Equal(day(2024, time.March, 5)))
}

func TestShortLabel(t *testing.T) {
	assert.Equal(t, "1/1", day(2024, time.January, 1).ShortLabel())
	assert.Equal(t, "14/1", day(2024, time.January, 14).ShortLabel())
	assert.Equal(t, "31/12", day(2024, time.December, 31).ShortLabel())
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, billing.DaysBetween(day(2024, time.January, 1), day(2024, time.January, 1)))
	assert.Equal(t, 30, billing.DaysBetween(day(2024, time.January, 1), day(2024, time.January, 31)))
	// Crosses a leap day
	assert.Equal(t, 2, billing.DaysBetween(day(2024, time.February, 28), day(2024, time.March, 1)))
}

func TestInterval_Days_Inclusive(t *testing.T) {
	iv := billing.Interval{Start: day(2024, time.January, 1), End: day(2024, time.January, 14)}
	assert.Equal(t, 14, iv.Days())

	single := billing.Interval{Start: day(2024, time.January, 5), End: day(2024, time.January, 5)}
	assert.Equal(t, 1, single.Days())
}

func TestInterval_Empty(t *testing.T) {
	iv := billing.Interval{Start: day(2024, time.January, 10), End: day(2024, time.January, 9)}
	assert.True(t, iv.Empty())
	assert.Equal(t, 0, iv.Days())
}

func TestInterval_Intersect(t *testing.T) {
	month := billing.Interval{Start: day(2024, time.January, 1), End: day(2024, time.January, 31)}

	// Overlapping: clamped to the month
	got, ok := billing.Interval{Start: day(2023, time.December, 15), End: day(2024, time.January, 10)}.Intersect(month)
	require.True(t, ok)
	assert.True(t, got.Start.Equal(day(2024, time.January, 1)))
	assert.True(t, got.End.Equal(day(2024, time.January, 10)))

	// Disjoint: no intersection
	_, ok = billing.Interval{Start: day(2024, time.March, 1), End: day(2024, time.March, 31)}.Intersect(month)
	assert.False(t, ok)
}

func TestParseMonth(t *testing.T) {
	m, err := billing.ParseMonth("2024-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", m.Key)
	assert.Equal(t, 31, m.DaysInMonth)
	assert.True(t, m.Start.Equal(day(2024, time.January, 1)))
	assert.True(t, m.End.Equal(day(2024, time.January, 31)))
}

func TestParseMonth_LeapFebruary(t *testing.T) {
	m, err := billing.ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, 29, m.DaysInMonth)
}

func TestParseMonth_Invalid(t *testing.T) {
	_, err := billing.ParseMonth("January 2024")
	assert.ErrorIs(t, err, billing.ErrInvalidMonth)
}

func TestMonth_IsCurrent(t *testing.T) {
	m, _ := billing.ParseMonth("2024-01")
	assert.True(t, m.IsCurrent(day(2024, time.January, 20)))
	assert.False(t, m.IsCurrent(day(2024, time.February, 1)))
}
