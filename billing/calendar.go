package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar date with no time-of-day component
// =============================================================================

// Day is a pure calendar date. All interval arithmetic in this package runs
// on Days, never on raw time.Time values, so a pause recorded at 23:59 local
// time can never shave a billable day off an adjacent interval.
type Day struct {
	t time.Time
}

// NewDay builds a Day from calendar components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates an arbitrary timestamp to its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a "yyyy-MM-dd" date string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.t.After(other.t) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.t.Before(other.t) }
func (d Day) IsZero() bool                 { return d.t.IsZero() }

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Day) Year() int         { return d.t.Year() }
func (d Day) Month() time.Month { return d.t.Month() }
func (d Day) DayOfMonth() int   { return d.t.Day() }
func (d Day) Time() time.Time   { return d.t }

func (d Day) String() string { return d.t.Format("2006-01-02") }

// ShortLabel renders the "d/M" form used in payout breakdowns ("1/1", "14/1").
func (d Day) ShortLabel() string {
	return fmt.Sprintf("%d/%d", d.t.Day(), int(d.t.Month()))
}

// DaysBetween returns the number of whole days from a to b (exclusive count).
func DaysBetween(a, b Day) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

func minDay(a, b Day) Day {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDay(a, b Day) Day {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// INTERVAL - Inclusive date range
// =============================================================================

// Interval is an inclusive [Start, End] date range. An interval with
// End before Start is empty and contributes nothing.
type Interval struct {
	Start Day
	End   Day
}

// Empty reports whether the interval holds no days.
func (iv Interval) Empty() bool { return iv.End.Before(iv.Start) }

// Days returns the inclusive day count: (End - Start) + 1.
func (iv Interval) Days() int {
	if iv.Empty() {
		return 0
	}
	return DaysBetween(iv.Start, iv.End) + 1
}

// Contains reports whether d falls within [Start, End].
func (iv Interval) Contains(d Day) bool {
	return d.AfterOrEqual(iv.Start) && d.BeforeOrEqual(iv.End)
}

// Intersect clamps the interval to other. The second return value is false
// when the two ranges share no days.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	out := Interval{
		Start: maxDay(iv.Start, other.Start),
		End:   minDay(iv.End, other.End),
	}
	if out.Empty() {
		return Interval{}, false
	}
	return out, true
}

func (iv Interval) String() string {
	return "[" + iv.Start.String() + ", " + iv.End.String() + "]"
}

// =============================================================================
// MONTH - Billing month resolved from a "yyyy-MM" key
// =============================================================================

// Month is a billing month with precomputed bounds. The Key ("yyyy-MM") is
// the canonical identifier used throughout: payout requests, payment records
// and CSV export names all carry it.
type Month struct {
	Key         string
	Start       Day
	End         Day
	DaysInMonth int
}

// ParseMonth resolves a "yyyy-MM" key into month bounds.
func ParseMonth(key string) (Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, key)
	}
	return MonthOf(DayOf(t)), nil
}

// MonthOf returns the month containing d.
func MonthOf(d Day) Month {
	start := NewDay(d.Year(), d.Month(), 1)
	end := start.AddMonths(1).AddDays(-1)
	return Month{
		Key:         start.t.Format("2006-01"),
		Start:       start,
		End:         end,
		DaysInMonth: end.DayOfMonth(),
	}
}

// Span returns the month as an interval.
func (m Month) Span() Interval { return Interval{Start: m.Start, End: m.End} }

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Day) bool { return m.Span().Contains(d) }

// IsCurrent reports whether the month contains today.
func (m Month) IsCurrent(today Day) bool { return m.Contains(today) }
