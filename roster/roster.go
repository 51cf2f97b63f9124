/*
Package roster manages the client lifecycle and the assignment ledger.

PURPOSE:
  Everything that mutates who works for whom and when: pausing a client
  (banking unused retainer days), resuming (optionally spending the banked
  days), marking a client as having left, and handing a client off between
  campaign managers. The billing package reads the ledger these operations
  maintain; it never writes it.

LEDGER INVARIANT:
  A client has at most one open history record (EndDate nil) at any time.
  Every operation that changes the manager or the platform count closes the
  open record the day before the change and appends a fresh open record.

SAVED DAYS:
  A client who pauses before their next billing date banks the remaining
  retainer days. On resume they can spend the bank - the next billing date
  becomes resume + saved days - or keep it and simply bill again a month
  after resuming.
*/
package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadpulse/agency-engine/billing"
)

// Service wires lifecycle operations to a store. Now is injectable for
// tests and defaults to billing.Today.
type Service struct {
	Store billing.RosterStore
	Now   func() billing.Day
}

func NewService(store billing.RosterStore) *Service {
	return &Service{Store: store, Now: billing.Today}
}

// =============================================================================
// SAVED DAYS
// =============================================================================

// SavedDaysAt computes how many retainer days a client banks when pausing on
// pauseDate: the days from the day after the pause through the next billing
// date, never negative. A client with no billing date scheduled banks nothing.
func SavedDaysAt(c billing.Client, pauseDate billing.Day) int {
	if c.NextBillingDate == nil || !pauseDate.Before(*c.NextBillingDate) {
		return 0
	}
	saved := billing.DaysBetween(pauseDate.AddDays(1), *c.NextBillingDate) + 1
	if saved < 0 {
		return 0
	}
	return saved
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Pause puts a client on hold from pauseDate and banks remaining retainer
// days. The resume date is cleared; it is only meaningful on active clients.
func (s *Service) Pause(ctx context.Context, clientID string, pauseDate billing.Day) (*billing.Client, error) {
	c, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	c.Status = billing.ClientPaused
	c.PauseDate = &pauseDate
	c.ResumeDate = nil
	c.SavedDays = SavedDaysAt(*c, pauseDate)
	if err := s.Store.SaveClient(ctx, *c); err != nil {
		return nil, err
	}
	return c, nil
}

// Resume reactivates a paused client from resumeDate. With useSavedDays the
// banked days are spent: the next billing date lands saved-days after the
// resume and the bank empties. Otherwise billing restarts a month out and
// the bank is kept.
func (s *Service) Resume(ctx context.Context, clientID string, resumeDate billing.Day, useSavedDays bool) (*billing.Client, error) {
	c, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var nextBilling billing.Day
	if useSavedDays && c.SavedDays > 0 {
		nextBilling = resumeDate.AddDays(c.SavedDays)
		c.SavedDays = 0
	} else {
		nextBilling = resumeDate.AddMonths(1)
	}

	c.Status = billing.ClientActive
	c.ResumeDate = &resumeDate
	c.NextBillingDate = &nextBilling
	if err := s.Store.SaveClient(ctx, *c); err != nil {
		return nil, err
	}
	return c, nil
}

// Leave marks a client as gone after lastWorkingDay. The open ledger record
// is closed on the last working day so payouts stop there, and the pause
// date records the first non-billable day for the billing engine's stale
// bookkeeping rule.
func (s *Service) Leave(ctx context.Context, clientID string, lastWorkingDay billing.Day) (*billing.Client, error) {
	c, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if open, err := s.Store.OpenHistoryFor(ctx, clientID); err != nil {
		return nil, err
	} else if open != nil {
		if err := s.Store.CloseHistory(ctx, open.ID, lastWorkingDay); err != nil {
			return nil, err
		}
	}

	firstGone := lastWorkingDay.AddDays(1)
	c.Status = billing.ClientLeft
	c.PauseDate = &firstGone
	c.ResumeDate = nil
	c.NextBillingDate = nil
	if err := s.Store.SaveClient(ctx, *c); err != nil {
		return nil, err
	}
	return c, nil
}

// =============================================================================
// LEDGER
// =============================================================================

// Enroll registers a new client and opens their first ledger record from the
// join date.
func (s *Service) Enroll(ctx context.Context, c billing.Client) (*billing.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.Store.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	rec := billing.HistoryRecord{
		ID:             uuid.NewString(),
		ClientID:       c.ID,
		ManagerID:      c.ManagerID,
		PlatformsCount: c.PlatformsCount,
		StartDate:      c.JoinDate,
	}
	if err := s.Store.AppendHistory(ctx, rec); err != nil {
		return nil, err
	}
	return &c, nil
}

// Handoff moves the client to a new manager from changeDate: the open record
// closes the day before, a fresh open record starts on the change date, and
// the client's current-manager pointer moves. Platform count carries over
// from the closed record.
func (s *Service) Handoff(ctx context.Context, clientID, newManagerID string, changeDate billing.Day) error {
	c, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if newManagerID == c.ManagerID {
		return nil
	}
	if _, err := s.Store.GetManager(ctx, newManagerID); err != nil {
		return err
	}

	platforms := c.PlatformsCount
	if open, err := s.Store.OpenHistoryFor(ctx, clientID); err != nil {
		return err
	} else if open != nil {
		platforms = open.PlatformsCount
		if err := s.Store.CloseHistory(ctx, open.ID, changeDate.AddDays(-1)); err != nil {
			return err
		}
	}

	rec := billing.HistoryRecord{
		ID:             uuid.NewString(),
		ClientID:       clientID,
		ManagerID:      newManagerID,
		PlatformsCount: platforms,
		StartDate:      changeDate,
	}
	if err := s.Store.AppendHistory(ctx, rec); err != nil {
		return err
	}

	c.ManagerID = newManagerID
	if err := s.Store.SaveClient(ctx, *c); err != nil {
		return fmt.Errorf("updating client after handoff: %w", err)
	}
	return nil
}

// ChangePlatforms re-scopes the retainer to a different platform count from
// changeDate. Like a handoff, the old record closes and a new one opens so
// historical months keep billing at the old rate.
func (s *Service) ChangePlatforms(ctx context.Context, clientID string, platforms int, changeDate billing.Day) error {
	c, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if platforms == c.PlatformsCount {
		return nil
	}

	if open, err := s.Store.OpenHistoryFor(ctx, clientID); err != nil {
		return err
	} else if open != nil {
		if err := s.Store.CloseHistory(ctx, open.ID, changeDate.AddDays(-1)); err != nil {
			return err
		}
	}

	rec := billing.HistoryRecord{
		ID:             uuid.NewString(),
		ClientID:       clientID,
		ManagerID:      c.ManagerID,
		PlatformsCount: platforms,
		StartDate:      changeDate,
	}
	if err := s.Store.AppendHistory(ctx, rec); err != nil {
		return err
	}

	c.PlatformsCount = platforms
	return s.Store.SaveClient(ctx, *c)
}
