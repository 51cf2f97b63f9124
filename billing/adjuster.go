/*
adjuster.go - Pause/resume interval adjustment

PURPOSE:
  The core of the payout engine. Takes one month-clamped assignment interval
  and the client's pause/resume state, and emits the billable sub-intervals:
  zero (fully inside a pause), one (truncated or shifted), or two (the
  interval straddles a complete pause window and must be split).

DECISION TABLE (first match wins):
  1. No pause date                          -> interval unchanged
  2. paused, pause <= start                 -> nothing
  3. paused, pause inside/after start       -> truncate to [start, pause-1]
  4. active with pause AND resume:
     a. resume <= start  (cycle before us)  -> interval unchanged
     b. pause <= start, resume > end        -> nothing (fully inside pause)
     c. pause <= start, resume <= end       -> [max(resume,start), end]
     d. pause inside, resume > end          -> [start, pause-1]
     e. pause and resume both inside        -> SPLIT: [start, pause-1] + [resume, end]
  A pause date later than the interval end means the pause hasn't started
  yet from this interval's point of view: unchanged.

LEFT CLIENTS:
  A client with status "left" accrues pay only through its last active
  working day. The pause date doubles as that bookkeeping: the interval is
  truncated at pause-1 exactly like a paused client, and dropped entirely
  when the pause predates the interval. Applied uniformly (the historical
  calculator and admin views disagreed here; this is the single rule).

ERROR POSTURE:
  Malformed state degrades to "no constraint" rather than failing: a paused
  client with no pause date bills the full interval (rule 1), an active
  client with a pause date but no resume date bills unchanged. This feeds a
  financial report a human reviews before money moves - an incomplete number
  beats no number. Sub-intervals that collapse to zero or negative days are
  dropped, never billed negative.
*/
package billing

// BillableSpans applies the client's pause/resume state to one month-clamped
// interval and returns the billable sub-intervals in chronological order.
func BillableSpans(span Interval, client Client) []Interval {
	if span.Empty() {
		return nil
	}
	if client.PauseDate == nil {
		return []Interval{span}
	}
	pause := *client.PauseDate

	switch client.Status {
	case ClientPaused, ClientLeft:
		return truncateAtPause(span, pause)

	case ClientActive:
		if client.ResumeDate == nil {
			// Stale pause date with no resume bookkeeping: no constraint.
			return []Interval{span}
		}
		return adjustAroundPauseWindow(span, pause, *client.ResumeDate)

	default:
		return []Interval{span}
	}
}

// truncateAtPause bills [start, pause-1], clamped to the interval. Nothing
// is billable when the pause predates the interval.
func truncateAtPause(span Interval, pause Day) []Interval {
	if pause.BeforeOrEqual(span.Start) {
		return nil
	}
	out := Interval{Start: span.Start, End: minDay(span.End, pause.AddDays(-1))}
	if out.Empty() {
		return nil
	}
	return []Interval{out}
}

// adjustAroundPauseWindow handles an active client whose pause window
// [pause, resume) may precede, cover, clip or split the interval.
func adjustAroundPauseWindow(span Interval, pause, resume Day) []Interval {
	switch {
	case resume.BeforeOrEqual(span.Start):
		// Whole cycle happened before this interval.
		return []Interval{span}

	case pause.BeforeOrEqual(span.Start) && resume.After(span.End):
		// Interval sits entirely inside the pause window.
		return nil

	case pause.BeforeOrEqual(span.Start):
		// Interval starts mid-pause; billable from the resume day.
		return []Interval{{Start: maxDay(resume, span.Start), End: span.End}}

	case span.Contains(pause) && resume.After(span.End):
		// Interval ends mid-pause; billable until the day before the pause.
		out := Interval{Start: span.Start, End: pause.AddDays(-1)}
		if out.Empty() {
			return nil
		}
		return []Interval{out}

	case span.Contains(pause) && span.Contains(resume):
		// Full pause window inside the interval: split around it. Each half
		// is day-counted and paid independently; the aggregator merges them
		// into the same client's running totals.
		var out []Interval
		if before := (Interval{Start: span.Start, End: pause.AddDays(-1)}); !before.Empty() {
			out = append(out, before)
		}
		if after := (Interval{Start: resume, End: span.End}); !after.Empty() {
			out = append(out, after)
		}
		return out

	default:
		// Pause begins after this interval ends.
		return []Interval{span}
	}
}
