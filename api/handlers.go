/*
handlers.go - HTTP API handlers for the agency operations dashboard

PURPOSE:
  Exposes the payout engine and client roster via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Managers:
    GET    /api/managers                List campaign managers
    POST   /api/managers                Create manager
    GET    /api/managers/{id}           Get manager
    PUT    /api/managers/{id}           Update manager
    GET    /api/managers/{id}/payments  Manager's payment history

  Clients:
    GET    /api/clients                 List clients
    POST   /api/clients                 Enroll client (opens ledger record)
    GET    /api/clients/{id}            Get client
    PUT    /api/clients/{id}            Update client
    DELETE /api/clients/{id}            Delete client (ledger rows survive)
    GET    /api/clients/{id}/history    Assignment ledger for the client
    GET    /api/clients/{id}/saved-days Preview banked days for a pause date
    POST   /api/clients/{id}/pause      Pause from a date, bank days
    POST   /api/clients/{id}/resume     Resume, optionally spending the bank
    POST   /api/clients/{id}/leave      Close out after last working day
    POST   /api/clients/{id}/handoff    Move to another manager
    POST   /api/clients/{id}/platforms  Change platform count

  One-time work:
    GET    /api/work                    List work items
    POST   /api/work                    Create work item
    PUT    /api/work/{id}               Update work item

  Payouts:
    GET    /api/payouts?month=yyyy-MM         Computed statements
    GET    /api/payouts/export?month=yyyy-MM  CSV export

  Payments:
    GET    /api/payments                 All payment records
    POST   /api/payments/mark-paid       Record (manager, month) as paid
    POST   /api/payments/{id}/cancel     Revert paid -> pending
    POST   /api/payments/{id}/receipt    Attach receipt, paid -> completed

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Invalid payment status transition
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public; the
  service is meant to sit behind the agency's reverse proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/leadpulse/agency-engine/billing"
	"github.com/leadpulse/agency-engine/metrics"
	"github.com/leadpulse/agency-engine/notify"
	"github.com/leadpulse/agency-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Storage is everything the handlers need from a store implementation.
// Both store/sqlite and store/memory satisfy it.
type Storage interface {
	billing.Directory
	billing.PaymentStore
	billing.RosterStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    Storage
	Roster   *roster.Service
	Recorder *billing.Recorder
	Notifier notify.Notifier
	Log      *logrus.Logger

	// Now is injectable for tests and defaults to billing.Today.
	Now func() billing.Day
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Storage, notifier notify.Notifier, log *logrus.Logger) *Handler {
	return &Handler{
		Store:    store,
		Roster:   roster.NewService(store),
		Recorder: billing.NewRecorder(store),
		Notifier: notifier,
		Log:      log,
		Now:      billing.Today,
	}
}

// =============================================================================
// MANAGER HANDLERS
// =============================================================================

// ListManagers returns all campaign managers.
func (h *Handler) ListManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.Store.ListManagers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list managers", err)
		return
	}

	dtos := make([]ManagerDTO, len(managers))
	for i, m := range managers {
		dtos[i] = toManagerDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetManager returns a single campaign manager.
func (h *Handler) GetManager(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.GetManager(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get manager", err)
		return
	}
	writeJSON(w, http.StatusOK, toManagerDTO(*m))
}

// CreateManager creates a campaign manager.
func (h *Handler) CreateManager(w http.ResponseWriter, r *http.Request) {
	h.saveManager(w, r, "")
}

// UpdateManager updates an existing campaign manager.
func (h *Handler) UpdateManager(w http.ResponseWriter, r *http.Request) {
	h.saveManager(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveManager(w http.ResponseWriter, r *http.Request, id string) {
	var req SaveManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Manager name is required", nil)
		return
	}

	creating := id == ""
	if creating {
		id = req.ID
		if id == "" {
			id = uuid.NewString()
		}
	}

	m := billing.CampaignManager{
		ID:                 id,
		Name:               req.Name,
		Email:              req.Email,
		RateSinglePlatform: decimal.NewFromFloat(req.RateSinglePlatform),
		RateDualPlatform:   decimal.NewFromFloat(req.RateDualPlatform),
		VATType:            billing.VATType(req.VATType),
		Status:             req.Status,
	}
	if m.VATType == "" {
		m.VATType = billing.VATExempt
	}
	if m.Status == "" {
		m.Status = "active"
	}

	if err := h.Store.SaveManager(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save manager", err)
		return
	}

	status := http.StatusOK
	if creating {
		status = http.StatusCreated
	}
	writeJSON(w, status, toManagerDTO(m))
}

// GetManagerPayments returns a manager's payment history, newest first.
func (h *Handler) GetManagerPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.PaymentsByManager(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// CreateClient enrolls a new client and opens their first ledger record.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req SaveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, ok := h.clientFromRequest(w, req)
	if !ok {
		return
	}
	if _, err := h.Store.GetManager(r.Context(), c.ManagerID); err != nil {
		h.writeDomainError(w, "Unknown manager", err)
		return
	}

	enrolled, err := h.Roster.Enroll(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to enroll client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(*enrolled))
}

// UpdateClient updates client fields that do not affect the ledger. Manager
// handoffs and platform changes go through their dedicated endpoints so the
// ledger stays consistent.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get client", err)
		return
	}

	var req SaveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = id

	c, ok := h.clientFromRequest(w, req)
	if !ok {
		return
	}
	if req.ManagerID != "" && req.ManagerID != existing.ManagerID {
		writeError(w, http.StatusBadRequest, "Use the handoff endpoint to change managers", nil)
		return
	}
	if req.PlatformsCount != 0 && req.PlatformsCount != existing.PlatformsCount {
		writeError(w, http.StatusBadRequest, "Use the platforms endpoint to change platform count", nil)
		return
	}

	// Lifecycle bookkeeping is owned by the lifecycle endpoints.
	c.ManagerID = existing.ManagerID
	c.PlatformsCount = existing.PlatformsCount
	c.Status = existing.Status
	c.PauseDate = existing.PauseDate
	c.ResumeDate = existing.ResumeDate
	c.SavedDays = existing.SavedDays

	if err := h.Store.SaveClient(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(c))
}

// DeleteClient removes a client record. Ledger rows survive so historical
// payouts remain computable.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clientFromRequest(w http.ResponseWriter, req SaveClientRequest) (billing.Client, bool) {
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Client name is required", nil)
		return billing.Client{}, false
	}
	joinDate, err := billing.ParseDay(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
		return billing.Client{}, false
	}

	c := billing.Client{
		ID:              req.ID,
		Name:            req.Name,
		Company:         req.Company,
		ManagerID:       req.ManagerID,
		Status:          billing.ClientActive,
		PlatformsCount:  req.PlatformsCount,
		MonthlyRetainer: decimal.NewFromFloat(req.MonthlyRetainer),
		JoinDate:        joinDate,
	}
	if c.PlatformsCount == 0 {
		c.PlatformsCount = 1
	}
	if req.NextBillingDate != nil {
		next, err := billing.ParseDay(*req.NextBillingDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid next_billing_date format (use YYYY-MM-DD)", err)
			return billing.Client{}, false
		}
		c.NextBillingDate = &next
	}
	return c, true
}

// GetClientHistory returns the assignment ledger for one client.
func (h *Handler) GetClientHistory(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	history, err := h.Store.ListHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	dtos := []HistoryDTO{}
	for _, rec := range history {
		if rec.ClientID == clientID {
			dtos = append(dtos, toHistoryDTO(rec))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSavedDays previews how many retainer days a pause on the given date
// would bank, without changing anything.
func (h *Handler) GetSavedDays(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get client", err)
		return
	}

	pauseDate, err := billing.ParseDay(r.URL.Query().Get("pause_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pause_date (use YYYY-MM-DD)", err)
		return
	}

	writeJSON(w, http.StatusOK, SavedDaysDTO{
		PauseDate: pauseDate.String(),
		SavedDays: roster.SavedDaysAt(*c, pauseDate),
	})
}

// PauseClient pauses a client from the given date and banks remaining
// retainer days.
func (h *Handler) PauseClient(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	pauseDate, err := billing.ParseDay(req.PauseDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pause_date (use YYYY-MM-DD)", err)
		return
	}

	c, err := h.Roster.Pause(r.Context(), chi.URLParam(r, "id"), pauseDate)
	if err != nil {
		h.writeDomainError(w, "Failed to pause client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// ResumeClient reactivates a paused client.
func (h *Handler) ResumeClient(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	resumeDate, err := billing.ParseDay(req.ResumeDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume_date (use YYYY-MM-DD)", err)
		return
	}

	c, err := h.Roster.Resume(r.Context(), chi.URLParam(r, "id"), resumeDate, req.UseSavedDays)
	if err != nil {
		h.writeDomainError(w, "Failed to resume client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// LeaveClient closes out a departing client after their last working day.
func (h *Handler) LeaveClient(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	lastDay, err := billing.ParseDay(req.LastWorkingDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid last_working_day (use YYYY-MM-DD)", err)
		return
	}

	c, err := h.Roster.Leave(r.Context(), chi.URLParam(r, "id"), lastDay)
	if err != nil {
		h.writeDomainError(w, "Failed to mark client as left", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// HandoffClient moves a client to a new manager from the change date.
func (h *Handler) HandoffClient(w http.ResponseWriter, r *http.Request) {
	var req HandoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	changeDate, err := billing.ParseDay(req.ChangeDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid change_date (use YYYY-MM-DD)", err)
		return
	}
	if req.NewManagerID == "" {
		writeError(w, http.StatusBadRequest, "new_manager_id is required", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Roster.Handoff(r.Context(), id, req.NewManagerID, changeDate); err != nil {
		h.writeDomainError(w, "Failed to hand off client", err)
		return
	}

	c, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// ChangeClientPlatforms re-scopes the retainer to a new platform count.
func (h *Handler) ChangeClientPlatforms(w http.ResponseWriter, r *http.Request) {
	var req PlatformsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	changeDate, err := billing.ParseDay(req.ChangeDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid change_date (use YYYY-MM-DD)", err)
		return
	}
	if req.PlatformsCount != 1 && req.PlatformsCount != 2 {
		writeError(w, http.StatusBadRequest, "platforms_count must be 1 or 2", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Roster.ChangePlatforms(r.Context(), id, req.PlatformsCount, changeDate); err != nil {
		h.writeDomainError(w, "Failed to change platforms", err)
		return
	}

	c, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// =============================================================================
// ONE-TIME WORK HANDLERS
// =============================================================================

// ListWork returns all one-time work items.
func (h *Handler) ListWork(w http.ResponseWriter, r *http.Request) {
	works, err := h.Store.ListOneTimeWork(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list work items", err)
		return
	}

	dtos := make([]WorkDTO, len(works))
	for i, item := range works {
		dtos[i] = toWorkDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWork creates a one-time work item.
func (h *Handler) CreateWork(w http.ResponseWriter, r *http.Request) {
	h.saveWork(w, r, "")
}

// UpdateWork updates a one-time work item (typically its status).
func (h *Handler) UpdateWork(w http.ResponseWriter, r *http.Request) {
	h.saveWork(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveWork(w http.ResponseWriter, r *http.Request, id string) {
	var req SaveWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	workDate, err := billing.ParseDay(req.WorkDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid work_date (use YYYY-MM-DD)", err)
		return
	}
	if req.ManagerID == "" {
		writeError(w, http.StatusBadRequest, "campaign_manager_id is required", nil)
		return
	}
	if _, err := h.Store.GetManager(r.Context(), req.ManagerID); err != nil {
		h.writeDomainError(w, "Unknown manager", err)
		return
	}

	creating := id == ""
	if creating {
		id = req.ID
		if id == "" {
			id = uuid.NewString()
		}
	}

	item := billing.OneTimeWork{
		ID:          id,
		ManagerID:   req.ManagerID,
		ClientName:  req.ClientName,
		Description: req.Description,
		WorkDate:    workDate,
		Amount:      decimal.NewFromFloat(req.Amount),
		Status:      billing.WorkStatus(req.Status),
	}
	if item.Status == "" {
		item.Status = billing.WorkPending
	}

	if err := h.Store.SaveOneTimeWork(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save work item", err)
		return
	}

	status := http.StatusOK
	if creating {
		status = http.StatusCreated
	}
	writeJSON(w, status, toWorkDTO(item))
}

// =============================================================================
// PAYOUT HANDLERS
// =============================================================================

// GetPayouts computes statements for the requested month.
// GET /api/payouts?month=yyyy-MM
func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	statements, _, ok := h.computeStatements(w, r)
	if !ok {
		return
	}

	dtos := make([]StatementDTO, len(statements))
	for i, st := range statements {
		dtos[i] = toStatementDTO(st)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportPayouts streams the month's statements as CSV.
// GET /api/payouts/export?month=yyyy-MM
func (h *Handler) ExportPayouts(w http.ResponseWriter, r *http.Request) {
	statements, month, ok := h.computeStatements(w, r)
	if !ok {
		return
	}

	metrics.ExportsGenerated.Inc()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", billing.ExportFilename(month)))
	w.Write([]byte(billing.ExportCSV(statements)))
}

func (h *Handler) computeStatements(w http.ResponseWriter, r *http.Request) ([]billing.Statement, billing.Month, bool) {
	month, err := billing.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use yyyy-MM)", err)
		return nil, billing.Month{}, false
	}

	start := time.Now()
	snap, err := billing.LoadSnapshot(r.Context(), h.Store, h.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return nil, billing.Month{}, false
	}
	statements := billing.Calculate(*snap, month, h.Now())
	metrics.ObserveCalculation(start)

	return statements, month, true
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns all payment records, newest month first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkPaid recomputes the statement for (manager, month) server-side and
// upserts the payment record as paid. Double-submission hits the same row.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	month, err := billing.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use yyyy-MM)", err)
		return
	}

	manager, err := h.Store.GetManager(r.Context(), req.ManagerID)
	if err != nil {
		h.writeDomainError(w, "Unknown manager", err)
		return
	}

	snap, err := billing.LoadSnapshot(r.Context(), h.Store, h.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	var statement *billing.Statement
	for _, st := range billing.Calculate(*snap, month, h.Now()) {
		if st.Manager.ID == manager.ID {
			statement = &st
			break
		}
	}
	if statement == nil {
		writeError(w, http.StatusBadRequest, "Manager has no billable activity for this month", nil)
		return
	}

	payment, err := h.Recorder.MarkPaid(r.Context(), *statement, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}
	metrics.PaymentsRecorded.WithLabelValues(string(payment.Status)).Inc()

	// Notification failures must not roll back a recorded payment.
	if err := h.Notifier.PaymentRecorded(r.Context(), *manager, *payment); err != nil {
		h.Log.WithError(err).WithField("manager", manager.Name).Warn("payment notification failed")
	}

	writeJSON(w, http.StatusOK, toPaymentDTO(*payment))
}

// CancelPayment reverts a paid record to pending.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Recorder.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to cancel payment", err)
		return
	}
	metrics.PaymentsRecorded.WithLabelValues(string(p.Status)).Inc()
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// AttachReceipt records the uploaded receipt URL and completes the payment.
func (h *Handler) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	var req ReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ReceiptURL == "" {
		writeError(w, http.StatusBadRequest, "receipt_url is required", nil)
		return
	}

	p, err := h.Recorder.AttachReceipt(r.Context(), chi.URLParam(r, "id"), req.ReceiptURL)
	if err != nil {
		h.writeDomainError(w, "Failed to attach receipt", err)
		return
	}
	metrics.PaymentsRecorded.WithLabelValues(string(p.Status)).Inc()
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// =============================================================================
// HELPERS
// =============================================================================

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, billing.ErrInvalidTransition):
		writeError(w, http.StatusConflict, message, err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
