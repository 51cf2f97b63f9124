/*
Package billing implements the payout calculation engine for the agency.

PURPOSE:
  Given a snapshot of campaign managers, clients, the client-to-manager
  assignment ledger and one-time work items, compute exactly how much each
  manager is owed for a target month - pro-rated to the day across manager
  handoffs and client pause/resume gaps.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client:          Retainer client with pause/resume bookkeeping
  - CampaignManager: The payee, with per-platform rates and VAT standing
  - HistoryRecord:   One entry of the append-only assignment ledger
  - OneTimeWork:     Ad-hoc paid work outside the retainer
  - Payment:         The persisted monthly payout record

DESIGN PRINCIPLES:
  1. Precision: money is decimal.Decimal end to end, floats only at the
     JSON boundary.
  2. Calendar purity: every date is a Day (see calendar.go), normalized at
     the ingestion boundary.
  3. The ledger is append-only: a client has at most one open HistoryRecord
     at any time; handoffs close the old record and append a new one.

SEE ALSO:
  - resolver.go:   Intersects ledger records with the target month
  - adjuster.go:   Splits intervals around pause/resume gaps
  - aggregator.go: Sums sub-intervals into per-manager statements
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CLIENT
// =============================================================================

type ClientStatus string

const (
	ClientActive ClientStatus = "active"
	ClientPaused ClientStatus = "paused"
	ClientLeft   ClientStatus = "left" // terminal for billing purposes
)

// Client is a retainer client of the agency.
//
// Pause bookkeeping: when Status is paused, PauseDate marks the first
// non-billable day and ResumeDate is ignored. When Status is active and both
// PauseDate and ResumeDate are set, the client went through a pause window
// [PauseDate, ResumeDate) and is billable again from ResumeDate.
type Client struct {
	ID             string
	Name           string
	Company        string
	ManagerID      string // current campaign manager
	Status         ClientStatus
	PlatformsCount int // 1 or 2
	MonthlyRetainer decimal.Decimal

	JoinDate        Day
	PauseDate       *Day
	ResumeDate      *Day
	SavedDays       int  // retainer days banked while paused
	NextBillingDate *Day
}

// =============================================================================
// CAMPAIGN MANAGER
// =============================================================================

type VATType string

const (
	VATExempt     VATType = "exempt"
	VATRegistered VATType = "registered"
)

// VATRate is the statutory VAT applied to registered managers.
var VATRate = decimal.NewFromFloat(0.17)

// CampaignManager is the payee. The rate applied to a billable interval is
// chosen by the HistoryRecord's platform count at the time of the assignment,
// never by the client's current state.
type CampaignManager struct {
	ID                 string
	Name               string
	Email              string
	RateSinglePlatform decimal.Decimal
	RateDualPlatform   decimal.Decimal
	VATType            VATType
	Status             string
}

// RateFor returns the monthly rate for a given platform count.
func (m CampaignManager) RateFor(platforms int) decimal.Decimal {
	if platforms == 2 {
		return m.RateDualPlatform
	}
	return m.RateSinglePlatform
}

// =============================================================================
// ASSIGNMENT LEDGER
// =============================================================================

// HistoryRecord is one entry of the append-only client-to-manager ledger.
// EndDate nil means the assignment is still open. A new record is appended
// whenever the manager or the platform count changes; the prior open record
// is closed first.
type HistoryRecord struct {
	ID             string
	ClientID       string
	ManagerID      string
	PlatformsCount int
	StartDate      Day
	EndDate        *Day
}

// Open reports whether this is the client's current assignment.
func (h HistoryRecord) Open() bool { return h.EndDate == nil }

// =============================================================================
// ONE-TIME WORK
// =============================================================================

type WorkStatus string

const (
	WorkPending   WorkStatus = "pending"
	WorkApproved  WorkStatus = "approved"
	WorkPaid      WorkStatus = "paid"
	WorkCompleted WorkStatus = "completed"
)

// OneTimeWork is ad-hoc paid work outside the monthly retainer.
type OneTimeWork struct {
	ID          string          `json:"id"`
	ManagerID   string          `json:"campaign_manager_id"`
	ClientName  string          `json:"client_name,omitempty"`
	Description string          `json:"description,omitempty"`
	WorkDate    Day             `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	Status      WorkStatus      `json:"status"`
}

// Payable reports whether the item counts toward the target month's payout.
func (w OneTimeWork) Payable(month Month) bool {
	switch w.Status {
	case WorkApproved, WorkPaid, WorkCompleted:
		return month.Contains(w.WorkDate)
	default:
		return false
	}
}

// =============================================================================
// PAYMENT RECORD
// =============================================================================

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCompleted PaymentStatus = "completed" // receipt attached
)

// Payment is the persisted monthly payout record. At most one row exists per
// (ManagerID, Month); recomputing and re-marking a month updates the same row.
type Payment struct {
	ID          string
	ManagerID   string
	Month       string // "yyyy-MM"
	BaseAmount  decimal.Decimal
	VATAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	Status      PaymentStatus
	PaymentDate *Day
	ReceiptURL  string
	ReceiptDate *Day
	Details     string // serialized breakdown, see recorder.go
}
