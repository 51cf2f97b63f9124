package roster_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpulse/agency-engine/billing"
	"github.com/leadpulse/agency-engine/roster"
	"github.com/leadpulse/agency-engine/store/memory"
)

func day(y int, m time.Month, d int) billing.Day {
	return billing.NewDay(y, m, d)
}

func dayPtr(d billing.Day) *billing.Day { return &d }

func newTestService(t *testing.T) (*roster.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := roster.NewService(store)
	svc.Now = func() billing.Day { return day(2024, time.January, 15) }

	require.NoError(t, store.SaveManager(context.Background(), billing.CampaignManager{
		ID: "m1", Name: "Manager One", VATType: billing.VATExempt,
	}))
	require.NoError(t, store.SaveManager(context.Background(), billing.CampaignManager{
		ID: "m2", Name: "Manager Two", VATType: billing.VATExempt,
	}))
	return svc, store
}

func enrollTestClient(t *testing.T, svc *roster.Service) *billing.Client {
	t.Helper()
	c, err := svc.Enroll(context.Background(), billing.Client{
		Name:            "Client",
		ManagerID:       "m1",
		Status:          billing.ClientActive,
		PlatformsCount:  1,
		MonthlyRetainer: decimal.NewFromInt(5000),
		JoinDate:        day(2023, time.June, 1),
	})
	require.NoError(t, err)
	return c
}

// =============================================================================
// SAVED DAYS
// =============================================================================

func TestSavedDaysAt(t *testing.T) {
	next := day(2024, time.January, 20)

	tests := []struct {
		name      string
		client    billing.Client
		pauseDate billing.Day
		want      int
	}{
		{
			name:      "pause ten days before billing banks ten",
			client:    billing.Client{NextBillingDate: &next},
			pauseDate: day(2024, time.January, 10),
			want:      10,
		},
		{
			name:      "pause the day before billing banks one",
			client:    billing.Client{NextBillingDate: &next},
			pauseDate: day(2024, time.January, 19),
			want:      1,
		},
		{
			name:      "pause on the billing date banks nothing",
			client:    billing.Client{NextBillingDate: &next},
			pauseDate: day(2024, time.January, 20),
			want:      0,
		},
		{
			name:      "pause after the billing date banks nothing",
			client:    billing.Client{NextBillingDate: &next},
			pauseDate: day(2024, time.January, 25),
			want:      0,
		},
		{
			name:      "no billing date scheduled banks nothing",
			client:    billing.Client{},
			pauseDate: day(2024, time.January, 10),
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roster.SavedDaysAt(tt.client, tt.pauseDate))
		})
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestPause_BanksDaysAndClearsResume(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	c.NextBillingDate = dayPtr(day(2024, time.January, 20))
	c.ResumeDate = dayPtr(day(2023, time.December, 1))
	require.NoError(t, store.SaveClient(ctx, *c))

	paused, err := svc.Pause(ctx, c.ID, day(2024, time.January, 10))
	require.NoError(t, err)

	assert.Equal(t, billing.ClientPaused, paused.Status)
	require.NotNil(t, paused.PauseDate)
	assert.True(t, paused.PauseDate.Equal(day(2024, time.January, 10)))
	assert.Nil(t, paused.ResumeDate)
	assert.Equal(t, 10, paused.SavedDays)
}

func TestResume_SpendingSavedDays(t *testing.T) {
	// GIVEN: A paused client with 10 banked days
	// WHEN: Resuming Feb 1 and spending the bank
	// THEN: Next billing lands Feb 11 and the bank empties
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	c.Status = billing.ClientPaused
	c.PauseDate = dayPtr(day(2024, time.January, 10))
	c.SavedDays = 10
	require.NoError(t, store.SaveClient(ctx, *c))

	resumed, err := svc.Resume(ctx, c.ID, day(2024, time.February, 1), true)
	require.NoError(t, err)

	assert.Equal(t, billing.ClientActive, resumed.Status)
	require.NotNil(t, resumed.ResumeDate)
	assert.True(t, resumed.ResumeDate.Equal(day(2024, time.February, 1)))
	require.NotNil(t, resumed.NextBillingDate)
	assert.True(t, resumed.NextBillingDate.Equal(day(2024, time.February, 11)))
	assert.Equal(t, 0, resumed.SavedDays)
}

func TestResume_KeepingSavedDays(t *testing.T) {
	// Without spending the bank, billing restarts a month out and the banked
	// days are kept.
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	c.Status = billing.ClientPaused
	c.PauseDate = dayPtr(day(2024, time.January, 10))
	c.SavedDays = 10
	require.NoError(t, store.SaveClient(ctx, *c))

	resumed, err := svc.Resume(ctx, c.ID, day(2024, time.February, 1), false)
	require.NoError(t, err)

	require.NotNil(t, resumed.NextBillingDate)
	assert.True(t, resumed.NextBillingDate.Equal(day(2024, time.March, 1)))
	assert.Equal(t, 10, resumed.SavedDays)
}

func TestLeave_ClosesLedgerOnLastWorkingDay(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	left, err := svc.Leave(ctx, c.ID, day(2024, time.January, 20))
	require.NoError(t, err)

	assert.Equal(t, billing.ClientLeft, left.Status)
	require.NotNil(t, left.PauseDate)
	// Pause date marks the first non-billable day.
	assert.True(t, left.PauseDate.Equal(day(2024, time.January, 21)))
	assert.Nil(t, left.NextBillingDate)

	open, err := store.OpenHistoryFor(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, open, "the ledger must hold no open record after leave")

	history, err := store.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].EndDate)
	assert.True(t, history[0].EndDate.Equal(day(2024, time.January, 20)))
}

// =============================================================================
// LEDGER
// =============================================================================

func TestEnroll_OpensFirstLedgerRecord(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	require.NotEmpty(t, c.ID)

	open, err := store.OpenHistoryFor(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "m1", open.ManagerID)
	assert.Equal(t, 1, open.PlatformsCount)
	assert.True(t, open.StartDate.Equal(day(2023, time.June, 1)))
}

func TestHandoff_ClosesAndAppends(t *testing.T) {
	// GIVEN: A client with m1 since June 2023
	// WHEN: Handing off to m2 effective Jan 16
	// THEN: m1's record closes Jan 15, m2's opens Jan 16, the client points
	//       at m2, and exactly one record stays open
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	require.NoError(t, svc.Handoff(ctx, c.ID, "m2", day(2024, time.January, 16)))

	history, err := store.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)

	closed := history[0]
	require.NotNil(t, closed.EndDate)
	assert.Equal(t, "m1", closed.ManagerID)
	assert.True(t, closed.EndDate.Equal(day(2024, time.January, 15)))

	open, err := store.OpenHistoryFor(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "m2", open.ManagerID)
	assert.True(t, open.StartDate.Equal(day(2024, time.January, 16)))

	updated, err := store.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "m2", updated.ManagerID)
}

func TestHandoff_SameManagerIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	require.NoError(t, svc.Handoff(ctx, c.ID, "m1", day(2024, time.January, 16)))

	history, err := store.ListHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHandoff_UnknownManagerRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	c := enrollTestClient(t, svc)

	err := svc.Handoff(ctx, c.ID, "ghost", day(2024, time.January, 16))
	assert.ErrorIs(t, err, billing.ErrManagerNotFound)
}

func TestHandoff_PlatformCountCarriesFromOpenRecord(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	require.NoError(t, svc.ChangePlatforms(ctx, c.ID, 2, day(2024, time.January, 5)))
	require.NoError(t, svc.Handoff(ctx, c.ID, "m2", day(2024, time.January, 16)))

	open, err := store.OpenHistoryFor(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, 2, open.PlatformsCount)
}

func TestChangePlatforms_ClosesAndAppends(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	require.NoError(t, svc.ChangePlatforms(ctx, c.ID, 2, day(2024, time.January, 10)))

	history, err := store.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].EndDate)
	assert.True(t, history[0].EndDate.Equal(day(2024, time.January, 9)))
	assert.Equal(t, 2, history[1].PlatformsCount)

	updated, err := store.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.PlatformsCount)
}

func TestChangePlatforms_SameCountIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	c := enrollTestClient(t, svc)

	require.NoError(t, svc.ChangePlatforms(ctx, c.ID, 1, day(2024, time.January, 10)))

	history, err := store.ListHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
