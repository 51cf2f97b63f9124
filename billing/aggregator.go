/*
aggregator.go - Per-manager payout statements for a target month

PURPOSE:
  The single shared calculation behind both the payout calculator screen and
  the admin payments screen. It folds resolved, pause-adjusted sub-intervals
  and one-time work into one Statement per manager: base amount, VAT, total
  and (for the current month) an end-of-month projection.

CALCULATION:
  For each manager:
    1. Resolve ledger records against the month (resolver.go).
    2. Adjust each span around pause/resume gaps (adjuster.go).
    3. Pay each sub-interval at (platform rate / days-in-month) x days,
       accumulating per client in a keyed reducer - multiple records or
       split halves for the same client merge into one detail row.
    4. Add qualifying one-time work (approved/paid/completed, dated in
       the month).
    5. VAT at 17% for registered managers, zero for exempt.
    6. Current month only: project the end-of-month total from the daily
       rate of currently-open, non-paused assignments.

PURITY:
  Calculate is a pure function of (snapshot, month, today). Running it twice
  yields identical statements; nothing is written until the recorder's
  explicit upsert (recorder.go).
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT - One batch-loaded view of the world
// =============================================================================

// Snapshot is the full data set a calculation runs against. It is loaded in
// one batch before computing so concurrent edits cannot skew a single run.
type Snapshot struct {
	Managers     []CampaignManager
	Clients      []Client
	History      []HistoryRecord
	OneTimeWorks []OneTimeWork
	Payments     []Payment
}

func (s Snapshot) clientByID(id string) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

func (s Snapshot) paymentFor(managerID, monthKey string) *Payment {
	for i := range s.Payments {
		if s.Payments[i].ManagerID == managerID && s.Payments[i].Month == monthKey {
			return &s.Payments[i]
		}
	}
	return nil
}

// =============================================================================
// STATEMENT - The computed payout for one manager
// =============================================================================

// WorkPeriod is one billable stretch within the month, rendered for display
// and CSV export ("1/1"-"14/1", 14 days).
type WorkPeriod struct {
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Days    int             `json:"days"`
	Payment decimal.Decimal `json:"payment"`
}

// ClientDetail is the accumulated payout for one client under one manager.
// Split pause windows and mid-month handoffs append periods here; day counts
// and payments accumulate rather than overwrite.
type ClientDetail struct {
	ClientID    string          `json:"clientId"`
	Name        string          `json:"name"`
	Company     string          `json:"company,omitempty"`
	Platforms   int             `json:"platforms"`
	Rate        decimal.Decimal `json:"rate"`
	WorkingDays int             `json:"workingDays"`
	Payment     decimal.Decimal `json:"payment"`
	Status      ClientStatus    `json:"status"`
	Periods     []WorkPeriod    `json:"periods"`
}

// Statement is the full computed payout for one manager for one month.
type Statement struct {
	Manager        CampaignManager
	BaseAmount     decimal.Decimal
	VATAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	ProjectedTotal decimal.Decimal
	ClientDetails  []ClientDetail
	OneTimeWorks   []OneTimeWork
	OneTimeTotal   decimal.Decimal
	DaysInMonth    int
	DaysPassed     int
	CurrentMonth   bool
	Existing       *Payment // prior record for (manager, month), if any
}

// HasWork reports whether the manager has any billable activity this month.
func (s Statement) HasWork() bool {
	return len(s.ClientDetails) > 0 || len(s.OneTimeWorks) > 0
}

// =============================================================================
// CALCULATE
// =============================================================================

// Calculate computes one Statement per manager with billable activity.
// Managers with no client days and no one-time work are omitted.
func Calculate(snap Snapshot, month Month, today Day) []Statement {
	current := month.IsCurrent(today)
	daysPassed := month.DaysInMonth
	if current {
		daysPassed = today.DayOfMonth()
	}

	var out []Statement
	for _, manager := range snap.Managers {
		st := calculateManager(snap, manager, month, today, current, daysPassed)
		if st.HasWork() {
			out = append(out, st)
		}
	}
	return out
}

func calculateManager(snap Snapshot, manager CampaignManager, month Month, today Day, current bool, daysPassed int) Statement {
	daysInMonth := decimal.NewFromInt(int64(month.DaysInMonth))
	acc := newDetailAccumulator()
	base := decimal.Zero

	spans := ResolveManagerSpans(snap.History, manager.ID, month, today)
	for _, rs := range spans {
		client, ok := snap.clientByID(rs.Record.ClientID)
		if !ok {
			continue
		}
		rate := manager.RateFor(rs.Record.PlatformsCount)
		dailyRate := rate.Div(daysInMonth)

		for _, billable := range BillableSpans(rs.Span, client) {
			days := billable.Days()
			if days <= 0 {
				continue
			}
			payment := dailyRate.Mul(decimal.NewFromInt(int64(days)))
			base = base.Add(payment)
			acc.add(client, rs.Record.PlatformsCount, rate, WorkPeriod{
				Start:   billable.Start.ShortLabel(),
				End:     billable.End.ShortLabel(),
				Days:    days,
				Payment: payment,
			})
		}
	}

	var oneTime []OneTimeWork
	oneTimeTotal := decimal.Zero
	for _, w := range snap.OneTimeWorks {
		if w.ManagerID != manager.ID || !w.Payable(month) {
			continue
		}
		oneTime = append(oneTime, w)
		oneTimeTotal = oneTimeTotal.Add(w.Amount)
	}
	base = base.Add(oneTimeTotal)

	vat := decimal.Zero
	if manager.VATType == VATRegistered {
		vat = base.Mul(VATRate)
	}

	projected := base
	if current {
		remaining := decimal.NewFromInt(int64(month.DaysInMonth - daysPassed))
		projected = base.Add(projectedDailyRate(snap, manager, today, daysInMonth).Mul(remaining))
	}

	return Statement{
		Manager:        manager,
		BaseAmount:     base,
		VATAmount:      vat,
		TotalAmount:    base.Add(vat),
		ProjectedTotal: projected,
		ClientDetails:  acc.details(),
		OneTimeWorks:   oneTime,
		OneTimeTotal:   oneTimeTotal,
		DaysInMonth:    month.DaysInMonth,
		DaysPassed:     daysPassed,
		CurrentMonth:   current,
		Existing:       snap.paymentFor(manager.ID, month.Key),
	}
}

// projectedDailyRate sums the daily rate of the manager's currently-open
// assignments whose clients are active and not inside a pause window today.
func projectedDailyRate(snap Snapshot, manager CampaignManager, today Day, daysInMonth decimal.Decimal) decimal.Decimal {
	daily := decimal.Zero
	for _, rec := range snap.History {
		if rec.ManagerID != manager.ID || !rec.Open() {
			continue
		}
		client, ok := snap.clientByID(rec.ClientID)
		if !ok || client.Status != ClientActive {
			continue
		}
		// A pause window covering today contributes nothing to the projection.
		if client.PauseDate != nil && client.ResumeDate != nil &&
			client.PauseDate.BeforeOrEqual(today) && client.ResumeDate.AfterOrEqual(today) {
			continue
		}
		daily = daily.Add(manager.RateFor(rec.PlatformsCount).Div(daysInMonth))
	}
	return daily
}

// =============================================================================
// DETAIL ACCUMULATOR - Keyed reducer over client sub-intervals
// =============================================================================

// detailAccumulator folds sub-intervals into per-client totals. Keying by
// client ID guarantees one detail row per client regardless of how many
// ledger records or split halves fed it; insertion order is preserved.
type detailAccumulator struct {
	byClient map[string]*ClientDetail
	order    []string
}

func newDetailAccumulator() *detailAccumulator {
	return &detailAccumulator{byClient: make(map[string]*ClientDetail)}
}

func (a *detailAccumulator) add(client Client, platforms int, rate decimal.Decimal, period WorkPeriod) {
	d, ok := a.byClient[client.ID]
	if !ok {
		d = &ClientDetail{
			ClientID:  client.ID,
			Name:      client.Name,
			Company:   client.Company,
			Platforms: platforms,
			Rate:      rate,
			Payment:   decimal.Zero,
			Status:    client.Status,
		}
		a.byClient[client.ID] = d
		a.order = append(a.order, client.ID)
	}
	d.WorkingDays += period.Days
	d.Payment = d.Payment.Add(period.Payment)
	d.Periods = append(d.Periods, period)
}

func (a *detailAccumulator) details() []ClientDetail {
	out := make([]ClientDetail, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byClient[id])
	}
	return out
}
