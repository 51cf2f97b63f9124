/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Money crosses
  this boundary as float64; everything inside the engine stays decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - billing/aggregator.go: Statement, the domain type behind StatementDTO
*/
package api

import (
	"github.com/leadpulse/agency-engine/billing"
)

// =============================================================================
// CAMPAIGN MANAGERS
// =============================================================================

// ManagerDTO represents a campaign manager in API responses.
type ManagerDTO struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email,omitempty"`
	RateSinglePlatform float64 `json:"rate_single_platform"`
	RateDualPlatform   float64 `json:"rate_dual_platform"`
	VATType            string  `json:"vat_type"`
	Status             string  `json:"status"`
}

// SaveManagerRequest creates or updates a campaign manager.
type SaveManagerRequest struct {
	ID                 string  `json:"id,omitempty"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	RateSinglePlatform float64 `json:"rate_single_platform"`
	RateDualPlatform   float64 `json:"rate_dual_platform"`
	VATType            string  `json:"vat_type"`
	Status             string  `json:"status"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Company         string  `json:"company,omitempty"`
	ManagerID       string  `json:"campaign_manager_id"`
	Status          string  `json:"status"`
	PlatformsCount  int     `json:"platforms_count"`
	MonthlyRetainer float64 `json:"monthly_retainer"`
	JoinDate        string  `json:"join_date"`
	PauseDate       *string `json:"pause_date,omitempty"`
	ResumeDate      *string `json:"resume_date,omitempty"`
	SavedDays       int     `json:"saved_days"`
	NextBillingDate *string `json:"next_billing_date,omitempty"`
}

// SaveClientRequest creates or updates a client.
type SaveClientRequest struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	Company         string  `json:"company"`
	ManagerID       string  `json:"campaign_manager_id"`
	PlatformsCount  int     `json:"platforms_count"`
	MonthlyRetainer float64 `json:"monthly_retainer"`
	JoinDate        string  `json:"join_date"`
	NextBillingDate *string `json:"next_billing_date,omitempty"`
}

// PauseRequest pauses a client from the given date.
type PauseRequest struct {
	PauseDate string `json:"pause_date"`
}

// ResumeRequest reactivates a paused client.
type ResumeRequest struct {
	ResumeDate   string `json:"resume_date"`
	UseSavedDays bool   `json:"use_saved_days"`
}

// LeaveRequest marks a client as gone after their last working day.
type LeaveRequest struct {
	LastWorkingDay string `json:"last_working_day"`
}

// HandoffRequest moves a client to a new manager from the change date.
type HandoffRequest struct {
	NewManagerID string `json:"new_manager_id"`
	ChangeDate   string `json:"change_date"`
}

// PlatformsRequest re-scopes the retainer to a new platform count.
type PlatformsRequest struct {
	PlatformsCount int    `json:"platforms_count"`
	ChangeDate     string `json:"change_date"`
}

// SavedDaysDTO previews how many retainer days a pause would bank.
type SavedDaysDTO struct {
	PauseDate string `json:"pause_date"`
	SavedDays int    `json:"saved_days"`
}

// HistoryDTO is one assignment ledger record.
type HistoryDTO struct {
	ID             string  `json:"id"`
	ClientID       string  `json:"client_id"`
	ManagerID      string  `json:"campaign_manager_id"`
	PlatformsCount int     `json:"platforms_count"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date,omitempty"`
}

// =============================================================================
// ONE-TIME WORK
// =============================================================================

// WorkDTO represents a one-time work item.
type WorkDTO struct {
	ID          string  `json:"id"`
	ManagerID   string  `json:"campaign_manager_id"`
	ClientName  string  `json:"client_name,omitempty"`
	Description string  `json:"description,omitempty"`
	WorkDate    string  `json:"work_date"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
}

// SaveWorkRequest creates or updates a one-time work item.
type SaveWorkRequest struct {
	ID          string  `json:"id,omitempty"`
	ManagerID   string  `json:"campaign_manager_id"`
	ClientName  string  `json:"client_name"`
	Description string  `json:"description"`
	WorkDate    string  `json:"work_date"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
}

// =============================================================================
// PAYOUTS
// =============================================================================

// WorkPeriodDTO is one billable stretch within the month.
type WorkPeriodDTO struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Days    int     `json:"days"`
	Payment float64 `json:"payment"`
}

// ClientDetailDTO is the accumulated payout for one client.
type ClientDetailDTO struct {
	ClientID    string          `json:"clientId"`
	Name        string          `json:"name"`
	Company     string          `json:"company,omitempty"`
	Platforms   int             `json:"platforms"`
	Rate        float64         `json:"rate"`
	WorkingDays int             `json:"workingDays"`
	Payment     float64         `json:"payment"`
	Status      string          `json:"status"`
	Periods     []WorkPeriodDTO `json:"periods"`
}

// StatementDTO is the computed payout for one manager for one month.
type StatementDTO struct {
	ManagerID      string            `json:"campaign_manager_id"`
	ManagerName    string            `json:"manager_name"`
	VATType        string            `json:"vat_type"`
	BaseAmount     float64           `json:"base_amount"`
	VATAmount      float64           `json:"vat_amount"`
	TotalAmount    float64           `json:"total_amount"`
	ProjectedTotal float64           `json:"projected_total,omitempty"`
	CurrentMonth   bool              `json:"current_month"`
	DaysInMonth    int               `json:"days_in_month"`
	DaysPassed     int               `json:"days_passed"`
	ClientDetails  []ClientDetailDTO `json:"client_details"`
	OneTimeWorks   []WorkDTO         `json:"one_time_works,omitempty"`
	OneTimeTotal   float64           `json:"one_time_total"`
	Payment        *PaymentDTO       `json:"payment,omitempty"`
}

// PaymentDTO represents a persisted payment record.
type PaymentDTO struct {
	ID          string  `json:"id"`
	ManagerID   string  `json:"campaign_manager_id"`
	Month       string  `json:"month"`
	BaseAmount  float64 `json:"base_amount"`
	VATAmount   float64 `json:"vat_amount"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	PaymentDate *string `json:"payment_date,omitempty"`
	ReceiptURL  string  `json:"receipt_url,omitempty"`
	ReceiptDate *string `json:"receipt_uploaded_date,omitempty"`
	Details     string  `json:"details,omitempty"`
}

// MarkPaidRequest records the payout for (manager, month) as paid.
type MarkPaidRequest struct {
	ManagerID string `json:"campaign_manager_id"`
	Month     string `json:"month"`
}

// ReceiptRequest attaches an uploaded receipt to a paid record.
type ReceiptRequest struct {
	ReceiptURL string `json:"receipt_url"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func dayString(d *billing.Day) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func toManagerDTO(m billing.CampaignManager) ManagerDTO {
	return ManagerDTO{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		RateSinglePlatform: m.RateSinglePlatform.InexactFloat64(),
		RateDualPlatform:   m.RateDualPlatform.InexactFloat64(),
		VATType:            string(m.VATType),
		Status:             m.Status,
	}
}

func toClientDTO(c billing.Client) ClientDTO {
	return ClientDTO{
		ID:              c.ID,
		Name:            c.Name,
		Company:         c.Company,
		ManagerID:       c.ManagerID,
		Status:          string(c.Status),
		PlatformsCount:  c.PlatformsCount,
		MonthlyRetainer: c.MonthlyRetainer.InexactFloat64(),
		JoinDate:        c.JoinDate.String(),
		PauseDate:       dayString(c.PauseDate),
		ResumeDate:      dayString(c.ResumeDate),
		SavedDays:       c.SavedDays,
		NextBillingDate: dayString(c.NextBillingDate),
	}
}

func toHistoryDTO(rec billing.HistoryRecord) HistoryDTO {
	return HistoryDTO{
		ID:             rec.ID,
		ClientID:       rec.ClientID,
		ManagerID:      rec.ManagerID,
		PlatformsCount: rec.PlatformsCount,
		StartDate:      rec.StartDate.String(),
		EndDate:        dayString(rec.EndDate),
	}
}

func toWorkDTO(w billing.OneTimeWork) WorkDTO {
	return WorkDTO{
		ID:          w.ID,
		ManagerID:   w.ManagerID,
		ClientName:  w.ClientName,
		Description: w.Description,
		WorkDate:    w.WorkDate.String(),
		Amount:      w.Amount.InexactFloat64(),
		Status:      string(w.Status),
	}
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		ManagerID:   p.ManagerID,
		Month:       p.Month,
		BaseAmount:  p.BaseAmount.InexactFloat64(),
		VATAmount:   p.VATAmount.InexactFloat64(),
		TotalAmount: p.TotalAmount.InexactFloat64(),
		Status:      string(p.Status),
		PaymentDate: dayString(p.PaymentDate),
		ReceiptURL:  p.ReceiptURL,
		ReceiptDate: dayString(p.ReceiptDate),
		Details:     p.Details,
	}
}

func toStatementDTO(st billing.Statement) StatementDTO {
	details := make([]ClientDetailDTO, len(st.ClientDetails))
	for i, d := range st.ClientDetails {
		periods := make([]WorkPeriodDTO, len(d.Periods))
		for j, p := range d.Periods {
			periods[j] = WorkPeriodDTO{
				Start:   p.Start,
				End:     p.End,
				Days:    p.Days,
				Payment: p.Payment.InexactFloat64(),
			}
		}
		details[i] = ClientDetailDTO{
			ClientID:    d.ClientID,
			Name:        d.Name,
			Company:     d.Company,
			Platforms:   d.Platforms,
			Rate:        d.Rate.InexactFloat64(),
			WorkingDays: d.WorkingDays,
			Payment:     d.Payment.InexactFloat64(),
			Status:      string(d.Status),
			Periods:     periods,
		}
	}

	works := make([]WorkDTO, len(st.OneTimeWorks))
	for i, w := range st.OneTimeWorks {
		works[i] = toWorkDTO(w)
	}

	dto := StatementDTO{
		ManagerID:     st.Manager.ID,
		ManagerName:   st.Manager.Name,
		VATType:       string(st.Manager.VATType),
		BaseAmount:    st.BaseAmount.InexactFloat64(),
		VATAmount:     st.VATAmount.InexactFloat64(),
		TotalAmount:   st.TotalAmount.InexactFloat64(),
		CurrentMonth:  st.CurrentMonth,
		DaysInMonth:   st.DaysInMonth,
		DaysPassed:    st.DaysPassed,
		ClientDetails: details,
		OneTimeWorks:  works,
		OneTimeTotal:  st.OneTimeTotal.InexactFloat64(),
	}
	if st.CurrentMonth {
		dto.ProjectedTotal = st.ProjectedTotal.InexactFloat64()
	}
	if st.Existing != nil {
		p := toPaymentDTO(*st.Existing)
		dto.Payment = &p
	}
	return dto
}
