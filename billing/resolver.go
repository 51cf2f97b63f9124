package billing

// =============================================================================
// HISTORY RESOLVER - Ledger records overlapping the target month
// =============================================================================

// ResolvedSpan pairs a ledger record with its portion of the target month.
// The Span is the record's [StartDate, EndDate-or-today] clamped to the
// month bounds, before any pause/resume adjustment.
type ResolvedSpan struct {
	Record HistoryRecord
	Span   Interval
}

// ResolveManagerSpans returns the manager's ledger records intersected with
// the target month. Records with no overlap are dropped silently - a manager
// who picked up a client in March simply has nothing to resolve for January.
//
// An open record (EndDate nil) is treated as running through "today". For a
// historical month the intersection clamps it to month-end anyway; for the
// current month it caps billable days at today so the projection (see
// aggregator.go) can account for the remainder.
func ResolveManagerSpans(history []HistoryRecord, managerID string, month Month, today Day) []ResolvedSpan {
	var out []ResolvedSpan
	for _, rec := range history {
		if rec.ManagerID != managerID {
			continue
		}
		end := today
		if rec.EndDate != nil {
			end = *rec.EndDate
		}
		span, ok := Interval{Start: rec.StartDate, End: end}.Intersect(month.Span())
		if !ok {
			continue
		}
		out = append(out, ResolvedSpan{Record: rec, Span: span})
	}
	return out
}
