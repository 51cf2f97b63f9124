// Package memory provides an in-memory store implementation (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/leadpulse/agency-engine/billing"
)

// Store implements billing.Directory, billing.PaymentStore and
// billing.RosterStore with plain maps. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	managers map[string]billing.CampaignManager
	clients  map[string]billing.Client
	history  map[string]billing.HistoryRecord
	works    map[string]billing.OneTimeWork
	payments map[string]billing.Payment

	// Insertion order, so listings are deterministic in tests.
	managerOrder []string
	clientOrder  []string
	historyOrder []string
	workOrder    []string
	paymentOrder []string
}

func New() *Store {
	return &Store{
		managers: make(map[string]billing.CampaignManager),
		clients:  make(map[string]billing.Client),
		history:  make(map[string]billing.HistoryRecord),
		works:    make(map[string]billing.OneTimeWork),
		payments: make(map[string]billing.Payment),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) ListManagers(_ context.Context) ([]billing.CampaignManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.CampaignManager, 0, len(s.managerOrder))
	for _, id := range s.managerOrder {
		out = append(out, s.managers[id])
	}
	return out, nil
}

func (s *Store) ListClients(_ context.Context) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Client, 0, len(s.clientOrder))
	for _, id := range s.clientOrder {
		out = append(out, s.clients[id])
	}
	return out, nil
}

func (s *Store) ListHistory(_ context.Context) ([]billing.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.HistoryRecord, 0, len(s.historyOrder))
	for _, id := range s.historyOrder {
		out = append(out, s.history[id])
	}
	return out, nil
}

func (s *Store) ListOneTimeWork(_ context.Context) ([]billing.OneTimeWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.OneTimeWork, 0, len(s.workOrder))
	for _, id := range s.workOrder {
		out = append(out, s.works[id])
	}
	return out, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) ListPayments(_ context.Context) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Payment, 0, len(s.paymentOrder))
	for _, id := range s.paymentOrder {
		out = append(out, s.payments[id])
	}
	return out, nil
}

func (s *Store) PaymentsByManager(_ context.Context, managerID string) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Payment
	for _, id := range s.paymentOrder {
		if s.payments[id].ManagerID == managerID {
			out = append(out, s.payments[id])
		}
	}
	return out, nil
}

func (s *Store) FindPayment(_ context.Context, managerID, monthKey string) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.paymentOrder {
		p := s.payments[id]
		if p.ManagerID == managerID && p.Month == monthKey {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, billing.ErrPaymentNotFound
	}
	return &p, nil
}

// SavePayment upserts by (ManagerID, Month): a record with a fresh ID but a
// key already on file replaces the existing row under the existing ID.
func (s *Store) SavePayment(_ context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.paymentOrder {
		existing := s.payments[id]
		if existing.ManagerID == p.ManagerID && existing.Month == p.Month {
			p.ID = existing.ID
			s.payments[id] = p
			return nil
		}
	}
	s.payments[p.ID] = p
	s.paymentOrder = append(s.paymentOrder, p.ID)
	return nil
}

// =============================================================================
// ROSTER
// =============================================================================

func (s *Store) GetClient(_ context.Context, id string) (*billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, billing.ErrClientNotFound
	}
	return &c, nil
}

func (s *Store) SaveClient(_ context.Context, c billing.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		s.clientOrder = append(s.clientOrder, c.ID)
	}
	s.clients[c.ID] = c
	return nil
}

func (s *Store) CreateClient(ctx context.Context, c billing.Client) error {
	return s.SaveClient(ctx, c)
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return billing.ErrClientNotFound
	}
	delete(s.clients, id)
	for i, cid := range s.clientOrder {
		if cid == id {
			s.clientOrder = append(s.clientOrder[:i], s.clientOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) GetManager(_ context.Context, id string) (*billing.CampaignManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.managers[id]
	if !ok {
		return nil, billing.ErrManagerNotFound
	}
	return &m, nil
}

func (s *Store) SaveManager(_ context.Context, m billing.CampaignManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.managers[m.ID]; !ok {
		s.managerOrder = append(s.managerOrder, m.ID)
	}
	s.managers[m.ID] = m
	return nil
}

func (s *Store) OpenHistoryFor(_ context.Context, clientID string) (*billing.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.historyOrder {
		rec := s.history[id]
		if rec.ClientID == clientID && rec.Open() {
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Store) CloseHistory(_ context.Context, id string, end billing.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.history[id]
	if !ok {
		return billing.ErrClientNotFound
	}
	rec.EndDate = &end
	s.history[id] = rec
	return nil
}

func (s *Store) AppendHistory(_ context.Context, rec billing.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history[rec.ID]; !ok {
		s.historyOrder = append(s.historyOrder, rec.ID)
	}
	s.history[rec.ID] = rec
	return nil
}

func (s *Store) CreateOneTimeWork(_ context.Context, w billing.OneTimeWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.works[w.ID]; !ok {
		s.workOrder = append(s.workOrder, w.ID)
	}
	s.works[w.ID] = w
	return nil
}

func (s *Store) SaveOneTimeWork(ctx context.Context, w billing.OneTimeWork) error {
	return s.CreateOneTimeWork(ctx, w)
}
