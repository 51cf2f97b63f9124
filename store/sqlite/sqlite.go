/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements billing.Directory, billing.PaymentStore and billing.RosterStore
  over a single SQLite database. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  campaign_managers:       Payees with per-platform rates and VAT standing
  clients:                 Retainer clients with pause/resume bookkeeping
  client_manager_history:  Append-only assignment ledger
  one_time_works:          Ad-hoc paid work items
  payments:                Monthly payout records

INVARIANTS ENFORCED IN SCHEMA:
  - idx_payments_manager_month: UNIQUE(manager_id, month) - one payment row
    per manager per month; SavePayment upserts against it.
  - idx_history_single_open: at most one open ledger record per client.
  - Dates are stored as "yyyy-MM-dd" TEXT, amounts as decimal TEXT; both
    round-trip losslessly.

WAL MODE:
  The database is opened with WAL so dashboard sessions reading while an
  admin writes do not block each other.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - billing/store.go: Interface definitions
  - store/memory:     In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/leadpulse/agency-engine/billing"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaign_managers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		rate_single_platform TEXT NOT NULL DEFAULT '0',
		rate_dual_platform TEXT NOT NULL DEFAULT '0',
		vat_type TEXT NOT NULL DEFAULT 'exempt',
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		company TEXT,
		manager_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		platforms_count INTEGER NOT NULL DEFAULT 1,
		monthly_retainer TEXT NOT NULL DEFAULT '0',
		join_date TEXT NOT NULL,
		pause_date TEXT,
		resume_date TEXT,
		saved_days INTEGER NOT NULL DEFAULT 0,
		next_billing_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_clients_manager ON clients(manager_id);
	CREATE INDEX IF NOT EXISTS idx_clients_status ON clients(status);

	-- Append-only assignment ledger. Closed records are never rewritten;
	-- handoffs and platform changes close the open record and insert a new one.
	CREATE TABLE IF NOT EXISTS client_manager_history (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		manager_id TEXT NOT NULL,
		platforms_count INTEGER NOT NULL DEFAULT 1,
		start_date TEXT NOT NULL,
		end_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_history_client ON client_manager_history(client_id);
	CREATE INDEX IF NOT EXISTS idx_history_manager ON client_manager_history(manager_id);

	-- At most one open record per client.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_history_single_open
		ON client_manager_history(client_id) WHERE end_date IS NULL;

	CREATE TABLE IF NOT EXISTS one_time_works (
		id TEXT PRIMARY KEY,
		manager_id TEXT NOT NULL,
		client_name TEXT,
		description TEXT,
		work_date TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_works_manager_date ON one_time_works(manager_id, work_date);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		manager_id TEXT NOT NULL,
		month TEXT NOT NULL,
		base_amount TEXT NOT NULL DEFAULT '0',
		vat_amount TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'pending',
		payment_date TEXT,
		receipt_url TEXT,
		receipt_date TEXT,
		details TEXT
	);

	-- One payment row per manager per month. SavePayment upserts against
	-- this key, which is what makes "mark as paid" idempotent.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_manager_month
		ON payments(manager_id, month);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func nullDay(d *billing.Day) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDay(ns sql.NullString) (*billing.Day, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := billing.ParseDay(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// =============================================================================
// CAMPAIGN MANAGERS
// =============================================================================

func (s *Store) ListManagers(ctx context.Context) ([]billing.CampaignManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, rate_single_platform, rate_dual_platform, vat_type, status
		FROM campaign_managers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.CampaignManager
	for rows.Next() {
		m, err := scanManager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetManager(ctx context.Context, id string) (*billing.CampaignManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, rate_single_platform, rate_dual_platform, vat_type, status
		FROM campaign_managers WHERE id = ?`, id)
	m, err := scanManager(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrManagerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) SaveManager(ctx context.Context, m billing.CampaignManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_managers (id, name, email, rate_single_platform, rate_dual_platform, vat_type, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			rate_single_platform = excluded.rate_single_platform,
			rate_dual_platform = excluded.rate_dual_platform,
			vat_type = excluded.vat_type,
			status = excluded.status`,
		m.ID, m.Name, m.Email, m.RateSinglePlatform.String(), m.RateDualPlatform.String(), m.VATType, m.Status)
	return err
}

func scanManager(r rowScanner) (billing.CampaignManager, error) {
	var m billing.CampaignManager
	var email sql.NullString
	var single, dual string
	if err := r.Scan(&m.ID, &m.Name, &email, &single, &dual, &m.VATType, &m.Status); err != nil {
		return m, err
	}
	m.Email = email.String
	var err error
	if m.RateSinglePlatform, err = scanDecimal(single); err != nil {
		return m, err
	}
	if m.RateDualPlatform, err = scanDecimal(dual); err != nil {
		return m, err
	}
	return m, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

const clientColumns = `id, name, company, manager_id, status, platforms_count,
	monthly_retainer, join_date, pause_date, resume_date, saved_days, next_billing_date`

func (s *Store) ListClients(ctx context.Context) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id string) (*billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c billing.Client) error {
	return s.SaveClient(ctx, c)
}

func (s *Store) SaveClient(ctx context.Context, c billing.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, company, manager_id, status, platforms_count,
			monthly_retainer, join_date, pause_date, resume_date, saved_days, next_billing_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			company = excluded.company,
			manager_id = excluded.manager_id,
			status = excluded.status,
			platforms_count = excluded.platforms_count,
			monthly_retainer = excluded.monthly_retainer,
			join_date = excluded.join_date,
			pause_date = excluded.pause_date,
			resume_date = excluded.resume_date,
			saved_days = excluded.saved_days,
			next_billing_date = excluded.next_billing_date`,
		c.ID, c.Name, c.Company, c.ManagerID, c.Status, c.PlatformsCount,
		c.MonthlyRetainer.String(), c.JoinDate.String(),
		nullDay(c.PauseDate), nullDay(c.ResumeDate), c.SavedDays, nullDay(c.NextBillingDate))
	return err
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrClientNotFound
	}
	// The ledger keeps its rows: history is what past payouts were computed
	// from and must survive the client record.
	return nil
}

func scanClient(r rowScanner) (billing.Client, error) {
	var c billing.Client
	var company sql.NullString
	var retainer, joinDate string
	var pause, resume, nextBilling sql.NullString
	if err := r.Scan(&c.ID, &c.Name, &company, &c.ManagerID, &c.Status, &c.PlatformsCount,
		&retainer, &joinDate, &pause, &resume, &c.SavedDays, &nextBilling); err != nil {
		return c, err
	}
	c.Company = company.String

	var err error
	if c.MonthlyRetainer, err = scanDecimal(retainer); err != nil {
		return c, err
	}
	if c.JoinDate, err = billing.ParseDay(joinDate); err != nil {
		return c, err
	}
	if c.PauseDate, err = scanDay(pause); err != nil {
		return c, err
	}
	if c.ResumeDate, err = scanDay(resume); err != nil {
		return c, err
	}
	if c.NextBillingDate, err = scanDay(nextBilling); err != nil {
		return c, err
	}
	return c, nil
}

// =============================================================================
// ASSIGNMENT LEDGER
// =============================================================================

func (s *Store) ListHistory(ctx context.Context) ([]billing.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, manager_id, platforms_count, start_date, end_date
		FROM client_manager_history ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.HistoryRecord
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) OpenHistoryFor(ctx context.Context, clientID string) (*billing.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, manager_id, platforms_count, start_date, end_date
		FROM client_manager_history WHERE client_id = ? AND end_date IS NULL`, clientID)
	rec, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) CloseHistory(ctx context.Context, id string, end billing.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE client_manager_history SET end_date = ? WHERE id = ?`, end.String(), id)
	return err
}

func (s *Store) AppendHistory(ctx context.Context, rec billing.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_manager_history (id, client_id, manager_id, platforms_count, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ClientID, rec.ManagerID, rec.PlatformsCount,
		rec.StartDate.String(), nullDay(rec.EndDate))
	return err
}

func scanHistory(r rowScanner) (billing.HistoryRecord, error) {
	var rec billing.HistoryRecord
	var start string
	var end sql.NullString
	if err := r.Scan(&rec.ID, &rec.ClientID, &rec.ManagerID, &rec.PlatformsCount, &start, &end); err != nil {
		return rec, err
	}
	var err error
	if rec.StartDate, err = billing.ParseDay(start); err != nil {
		return rec, err
	}
	if rec.EndDate, err = scanDay(end); err != nil {
		return rec, err
	}
	return rec, nil
}

// =============================================================================
// ONE-TIME WORK
// =============================================================================

func (s *Store) ListOneTimeWork(ctx context.Context) ([]billing.OneTimeWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, manager_id, client_name, description, work_date, amount, status
		FROM one_time_works ORDER BY work_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.OneTimeWork
	for rows.Next() {
		var w billing.OneTimeWork
		var clientName, description sql.NullString
		var workDate, amount string
		if err := rows.Scan(&w.ID, &w.ManagerID, &clientName, &description, &workDate, &amount, &w.Status); err != nil {
			return nil, err
		}
		w.ClientName = clientName.String
		w.Description = description.String
		if w.WorkDate, err = billing.ParseDay(workDate); err != nil {
			return nil, err
		}
		if w.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) CreateOneTimeWork(ctx context.Context, w billing.OneTimeWork) error {
	return s.SaveOneTimeWork(ctx, w)
}

func (s *Store) SaveOneTimeWork(ctx context.Context, w billing.OneTimeWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO one_time_works (id, manager_id, client_name, description, work_date, amount, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			manager_id = excluded.manager_id,
			client_name = excluded.client_name,
			description = excluded.description,
			work_date = excluded.work_date,
			amount = excluded.amount,
			status = excluded.status`,
		w.ID, w.ManagerID, w.ClientName, w.Description, w.WorkDate.String(), w.Amount.String(), w.Status)
	return err
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = `id, manager_id, month, base_amount, vat_amount, total_amount,
	status, payment_date, receipt_url, receipt_date, details`

func (s *Store) ListPayments(ctx context.Context) ([]billing.Payment, error) {
	return s.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY month DESC, manager_id`)
}

func (s *Store) PaymentsByManager(ctx context.Context, managerID string) ([]billing.Payment, error) {
	return s.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE manager_id = ? ORDER BY month DESC`, managerID)
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FindPayment(ctx context.Context, managerID, monthKey string) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE manager_id = ? AND month = ?`, managerID, monthKey)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePayment upserts by (manager_id, month). The unique index guarantees a
// concurrent double-submission collapses onto one row.
func (s *Store) SavePayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, manager_id, month, base_amount, vat_amount, total_amount,
			status, payment_date, receipt_url, receipt_date, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(manager_id, month) DO UPDATE SET
			base_amount = excluded.base_amount,
			vat_amount = excluded.vat_amount,
			total_amount = excluded.total_amount,
			status = excluded.status,
			payment_date = excluded.payment_date,
			receipt_url = excluded.receipt_url,
			receipt_date = excluded.receipt_date,
			details = excluded.details`,
		p.ID, p.ManagerID, p.Month, p.BaseAmount.String(), p.VATAmount.String(), p.TotalAmount.String(),
		p.Status, nullDay(p.PaymentDate), p.ReceiptURL, nullDay(p.ReceiptDate), p.Details)
	return err
}

func scanPayment(r rowScanner) (billing.Payment, error) {
	var p billing.Payment
	var base, vat, total string
	var paymentDate, receiptURL, receiptDate, details sql.NullString
	if err := r.Scan(&p.ID, &p.ManagerID, &p.Month, &base, &vat, &total,
		&p.Status, &paymentDate, &receiptURL, &receiptDate, &details); err != nil {
		return p, err
	}
	p.ReceiptURL = receiptURL.String
	p.Details = details.String

	var err error
	if p.BaseAmount, err = scanDecimal(base); err != nil {
		return p, err
	}
	if p.VATAmount, err = scanDecimal(vat); err != nil {
		return p, err
	}
	if p.TotalAmount, err = scanDecimal(total); err != nil {
		return p, err
	}
	if p.PaymentDate, err = scanDay(paymentDate); err != nil {
		return p, err
	}
	if p.ReceiptDate, err = scanDay(receiptDate); err != nil {
		return p, err
	}
	return p, nil
}
