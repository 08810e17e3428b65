package database

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"snatch/internal/models"
	"snatch/internal/services"
)

// MemoryStore keeps everything in process memory. Used for tests and --db memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	order    []string
	searches map[string][]models.SearchRecord
	billing  map[string][]models.BillingRecord
	claims   map[string][]models.Claim
}

var _ services.AccountStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]models.Account),
		searches: make(map[string][]models.SearchRecord),
		billing:  make(map[string][]models.BillingRecord),
		claims:   make(map[string][]models.Claim),
	}
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, fmt.Errorf("account %s: %w", id, services.ErrNotFound)
	}
	return account, nil
}

func (s *MemoryStore) GetAccountByEmail(_ context.Context, email string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return models.Account{}, fmt.Errorf("account %s: %w", email, services.ErrNotFound)
}

func (s *MemoryStore) PutAccount(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.accounts {
		if id != account.ID && other.Email == account.Email {
			return fmt.Errorf("account %s: %w", account.Email, services.ErrConflict)
		}
	}
	if _, ok := s.accounts[account.ID]; !ok {
		s.order = append(s.order, account.ID)
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *MemoryStore) ListAccounts(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(s.order))
	for _, id := range s.order {
		accounts = append(accounts, s.accounts[id])
	}
	return accounts, nil
}

func (s *MemoryStore) AppendSearch(_ context.Context, record models.SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Results = slices.Clone(record.Results)
	s.searches[record.AccountID] = append(s.searches[record.AccountID], record)
	return nil
}

func (s *MemoryStore) ListSearches(_ context.Context, accountID string) ([]models.SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.searches[accountID]
	records := make([]models.SearchRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		record := stored[i]
		record.Results = slices.Clone(record.Results)
		records = append(records, record)
	}
	return records, nil
}

func (s *MemoryStore) AppendBilling(_ context.Context, record models.BillingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.billing[record.AccountID] = append(s.billing[record.AccountID], record)
	return nil
}

func (s *MemoryStore) ListBilling(_ context.Context, accountID string) ([]models.BillingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := slices.Clone(s.billing[accountID])
	slices.Reverse(records)
	if records == nil {
		records = []models.BillingRecord{}
	}
	return records, nil
}

func (s *MemoryStore) AppendClaim(_ context.Context, claim models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.claims[claim.AccountID] {
		if existing.Name == claim.Name {
			return fmt.Errorf("claim %s: %w", claim.Name, services.ErrConflict)
		}
	}
	s.claims[claim.AccountID] = append(s.claims[claim.AccountID], claim)
	return nil
}

func (s *MemoryStore) ListClaims(_ context.Context, accountID string) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims := slices.Clone(s.claims[accountID])
	if claims == nil {
		claims = []models.Claim{}
	}
	return claims, nil
}
