package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"snatch/internal/models"
)

// memStore is an in-package AccountStore for service tests
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	searches []models.SearchRecord
	billing  []models.BillingRecord
	claims   []models.Claim

	putErr    error
	searchErr error
	puts      int
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]models.Account)}
}

func (m *memStore) GetAccount(_ context.Context, id string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memStore) GetAccountByEmail(_ context.Context, email string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, fmt.Errorf("account %s: %w", email, ErrNotFound)
}

func (m *memStore) PutAccount(_ context.Context, a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.accounts[a.ID] = a
	return nil
}

func (m *memStore) ListAccounts(_ context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) AppendSearch(_ context.Context, r models.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return m.searchErr
	}
	m.searches = append(m.searches, r)
	return nil
}

func (m *memStore) ListSearches(_ context.Context, accountID string) ([]models.SearchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SearchRecord
	for i := len(m.searches) - 1; i >= 0; i-- {
		if m.searches[i].AccountID == accountID {
			out = append(out, m.searches[i])
		}
	}
	return out, nil
}

func (m *memStore) AppendBilling(_ context.Context, r models.BillingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billing = append(m.billing, r)
	return nil
}

func (m *memStore) ListBilling(_ context.Context, accountID string) ([]models.BillingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BillingRecord
	for i := len(m.billing) - 1; i >= 0; i-- {
		if m.billing[i].AccountID == accountID {
			out = append(out, m.billing[i])
		}
	}
	return out, nil
}

func (m *memStore) AppendClaim(_ context.Context, c models.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims = append(m.claims, c)
	return nil
}

func (m *memStore) ListClaims(_ context.Context, accountID string) ([]models.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Claim
	for _, c := range m.claims {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingTracker captures tracked events synchronously
type recordingTracker struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingTracker) Track(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingTracker) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

// staticCheckers answers every dimension with the same value
func staticCheckers(domain, trademark, business, social bool) map[Dimension]Checker {
	answer := func(v bool) Checker {
		return CheckerFunc(func(context.Context, string) (bool, error) { return v, nil })
	}
	return map[Dimension]Checker{
		DimensionDomain:    answer(domain),
		DimensionTrademark: answer(trademark),
		DimensionBusiness:  answer(business),
		DimensionSocial:    answer(social),
	}
}

var errBoom = errors.New("boom")

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func freeAccount(id string) models.Account {
	return models.Account{
		ID:                id,
		Email:             id + "@example.com",
		Plan:              models.PlanFree,
		SearchesResetDate: NextMonth(testNow),
		CreatedAt:         testNow,
	}
}
