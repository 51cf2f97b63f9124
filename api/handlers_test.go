package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpulse/agency-engine/api"
	"github.com/leadpulse/agency-engine/billing"
	"github.com/leadpulse/agency-engine/notify"
	"github.com/leadpulse/agency-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	h := api.NewHandler(store, &notify.LogNotifier{Log: log}, log)
	h.Now = func() billing.Day { return billing.NewDay(2024, time.February, 15) }
	h.Recorder.Now = h.Now
	h.Roster.Now = h.Now

	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedManager(t *testing.T, store *memory.Store, id string, rate int64) {
	t.Helper()
	require.NoError(t, store.SaveManager(context.Background(), billing.CampaignManager{
		ID:                 id,
		Name:               "Manager " + id,
		RateSinglePlatform: decimal.NewFromInt(rate),
		RateDualPlatform:   decimal.NewFromInt(rate * 2),
		VATType:            billing.VATExempt,
		Status:             "active",
	}))
}

func seedBilledJanuary(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	seedManager(t, store, "m1", 3100)
	require.NoError(t, store.SaveClient(ctx, billing.Client{
		ID: "c1", Name: "Client", ManagerID: "m1",
		Status: billing.ClientActive, PlatformsCount: 1,
		JoinDate: billing.NewDay(2023, time.June, 1),
	}))
	require.NoError(t, store.AppendHistory(ctx, billing.HistoryRecord{
		ID: "h1", ClientID: "c1", ManagerID: "m1", PlatformsCount: 1,
		StartDate: billing.NewDay(2024, time.January, 1),
	}))
}

// =============================================================================
// MANAGERS
// =============================================================================

func TestCreateAndGetManager(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/managers", map[string]any{
		"name":                 "Dana",
		"email":                "dana@example.com",
		"rate_single_platform": 3000,
		"rate_dual_platform":   4500,
		"vat_type":             "registered",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.ManagerDTO](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 3000.0, created.RateSinglePlatform)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/managers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.ManagerDTO](t, resp)
	assert.Equal(t, "Dana", got.Name)
	assert.Equal(t, "registered", got.VATType)
}

func TestCreateManager_NameRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/managers", map[string]any{
		"rate_single_platform": 3000,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetManager_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/managers/ghost", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// CLIENTS
// =============================================================================

func TestCreateClient_OpensLedger(t *testing.T) {
	srv, store := newTestServer(t)
	seedManager(t, store, "m1", 3000)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/clients", map[string]any{
		"name":                "Acme",
		"campaign_manager_id": "m1",
		"platforms_count":     1,
		"monthly_retainer":    5000,
		"join_date":           "2024-01-05",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.ClientDTO](t, resp)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/clients/"+created.ID+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]api.HistoryDTO](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, "m1", history[0].ManagerID)
	assert.Equal(t, "2024-01-05", history[0].StartDate)
	assert.Nil(t, history[0].EndDate)
}

func TestCreateClient_UnknownManagerRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/clients", map[string]any{
		"name":                "Acme",
		"campaign_manager_id": "ghost",
		"join_date":           "2024-01-05",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPauseAndResumeClient(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)

	ctx := context.Background()
	c, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	next := billing.NewDay(2024, time.February, 25)
	c.NextBillingDate = &next
	require.NoError(t, store.SaveClient(ctx, *c))

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/clients/c1/pause", map[string]any{
		"pause_date": "2024-02-15",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paused := decode[api.ClientDTO](t, resp)
	assert.Equal(t, "paused", paused.Status)
	assert.Equal(t, 10, paused.SavedDays)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/clients/c1/resume", map[string]any{
		"resume_date":    "2024-03-01",
		"use_saved_days": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resumed := decode[api.ClientDTO](t, resp)
	assert.Equal(t, "active", resumed.Status)
	assert.Equal(t, 0, resumed.SavedDays)
	require.NotNil(t, resumed.NextBillingDate)
	assert.Equal(t, "2024-03-11", *resumed.NextBillingDate)
}

func TestSavedDaysPreview(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)

	ctx := context.Background()
	c, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	next := billing.NewDay(2024, time.February, 25)
	c.NextBillingDate = &next
	require.NoError(t, store.SaveClient(ctx, *c))

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/clients/c1/saved-days?pause_date=2024-02-15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[api.SavedDaysDTO](t, resp)
	assert.Equal(t, 10, preview.SavedDays)

	// A preview changes nothing.
	unchanged, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, billing.ClientActive, unchanged.Status)
}

func TestHandoffEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)
	seedManager(t, store, "m2", 4000)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/clients/c1/handoff", map[string]any{
		"new_manager_id": "m2",
		"change_date":    "2024-02-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.ClientDTO](t, resp)
	assert.Equal(t, "m2", got.ManagerID)

	history, err := store.ListHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].EndDate)
	assert.Equal(t, "2024-01-31", history[0].EndDate.String())
}

// =============================================================================
// PAYOUTS
// =============================================================================

func TestGetPayouts(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/payouts?month=2024-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	statements := decode[[]api.StatementDTO](t, resp)

	require.Len(t, statements, 1)
	st := statements[0]
	assert.Equal(t, "m1", st.ManagerID)
	assert.InDelta(t, 3100.0, st.BaseAmount, 0.01)
	assert.False(t, st.CurrentMonth)
	require.Len(t, st.ClientDetails, 1)
	assert.Equal(t, 31, st.ClientDetails[0].WorkingDays)
}

func TestGetPayouts_InvalidMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/payouts?month=January", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportPayouts(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)

	resp, err := http.Get(srv.URL + "/api/payouts/export?month=2024-01")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "payment-calculation-2024-01.csv")
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestMarkPaid_Lifecycle(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)

	// Mark January paid.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payments/mark-paid", map[string]any{
		"campaign_manager_id": "m1",
		"month":               "2024-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decode[api.PaymentDTO](t, resp)
	assert.Equal(t, "paid", paid.Status)
	assert.InDelta(t, 3100.0, paid.TotalAmount, 0.01)
	require.NotNil(t, paid.PaymentDate)

	// Double submission updates the same record.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/payments/mark-paid", map[string]any{
		"campaign_manager_id": "m1",
		"month":               "2024-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decode[api.PaymentDTO](t, resp)
	assert.Equal(t, paid.ID, again.ID)

	// Attach a receipt: paid -> completed.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/payments/"+paid.ID+"/receipt", map[string]any{
		"receipt_url": "https://receipts.example/r1.pdf",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	completed := decode[api.PaymentDTO](t, resp)
	assert.Equal(t, "completed", completed.Status)

	// Completed records cannot be cancelled.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/payments/"+paid.ID+"/cancel", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMarkPaid_NoActivityRejected(t *testing.T) {
	srv, store := newTestServer(t)
	seedManager(t, store, "m1", 3000)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payments/mark-paid", map[string]any{
		"campaign_manager_id": "m1",
		"month":               "2024-01",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestManagerPaymentHistory(t *testing.T) {
	srv, store := newTestServer(t)
	seedBilledJanuary(t, store)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payments/mark-paid", map[string]any{
		"campaign_manager_id": "m1",
		"month":               "2024-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/managers/m1/payments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payments := decode[[]api.PaymentDTO](t, resp)
	require.Len(t, payments, 1)
	assert.Equal(t, "2024-01", payments[0].Month)
}
