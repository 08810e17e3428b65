package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snatch/internal/models"
)

// RandomTerms seed the "surprise me" search
var RandomTerms = []string{
	"Innovate", "Nexus", "Vertex", "Catalyst", "Pinnacle", "Zenith",
	"Fusion", "Quantum", "Synergy", "Velocity", "Momentum", "Elevate",
}

// SearchResult is the ranked outcome of one search
type SearchResult struct {
	Term           string              `json:"term"`
	Results        []models.NameResult `json:"results"`
	AvailableCount int                 `json:"available"`
	TotalCount     int                 `json:"total"`
	RecordID       string              `json:"record_id,omitempty"`
	Degraded       int                 `json:"degraded"` // dimension checks that fell back to unavailable
}

// SearchService runs quota-gated name searches
type SearchService struct {
	store    AccountStore
	prober   *Prober
	quota    *QuotaGate
	locks    *KeyedMutex
	notify   Tracker
	clock    Clock
	logger   *zap.Logger
	pickTerm func() string
}

// NewSearchService creates a new search service
func NewSearchService(store AccountStore, prober *Prober, quota *QuotaGate, locks *KeyedMutex, notify Tracker, clock Clock, logger *zap.Logger) *SearchService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = (*NotifyService)(nil)
	}
	return &SearchService{
		store:  store,
		prober: prober,
		quota:  quota,
		locks:  locks,
		notify: notify,
		clock:  clock,
		logger: logger,
		pickTerm: func() string {
			return RandomTerms[rand.IntN(len(RandomTerms))]
		},
	}
}

// Search authorizes the account, probes every candidate for term and stores
// the outcome. The search record is written before usage is charged, so a
// failure in between leaves the account with unused quota rather than a
// charge without a record.
func (s *SearchService) Search(ctx context.Context, accountID, term string) (SearchResult, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return SearchResult{}, fmt.Errorf("get account by id: %w", err)
	}

	now := s.clock.Now()
	authorized, err := s.quota.Authorize(account, now)
	if err != nil {
		return SearchResult{}, err
	}
	if windowChanged(account, authorized) {
		authorized.UpdatedAt = now
		if err := s.store.PutAccount(ctx, authorized); err != nil {
			return SearchResult{}, fmt.Errorf("save account: %w", err)
		}
		s.logger.Info("quota window reset", zap.String("account_id", accountID))
	}

	result := SearchResult{Term: term, Results: []models.NameResult{}}

	names := GenerateCandidates(term)
	if len(names) == 0 {
		return result, nil
	}

	results, degraded, err := s.prober.ProbeAll(ctx, names)
	if err != nil {
		return SearchResult{}, err
	}
	Rank(results)

	record := models.SearchRecord{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		SearchTerm: term,
		Results:    append([]models.NameResult(nil), results...),
		Timestamp:  s.clock.Now(),
		TotalCount: len(results),
	}
	for _, r := range results {
		if r.Available {
			record.AvailableCount++
		}
	}

	if err := s.store.AppendSearch(ctx, record); err != nil {
		return SearchResult{}, fmt.Errorf("save search: %w", err)
	}

	charged, err := s.quota.RecordUsage(authorized)
	if err != nil {
		return SearchResult{}, err
	}
	if charged.SearchesUsed != authorized.SearchesUsed {
		charged.UpdatedAt = s.clock.Now()
		if err := s.store.PutAccount(context.WithoutCancel(ctx), charged); err != nil {
			return SearchResult{}, fmt.Errorf("save account usage: %w", err)
		}
	}

	s.logger.Info("search completed",
		zap.String("account_id", accountID),
		zap.String("term", term),
		zap.Int("total", record.TotalCount),
		zap.Int("available", record.AvailableCount),
		zap.Int("degraded", len(degraded)))
	s.notify.Track(ctx, searchEvent(accountID, term, len(results)))

	result.Results = results
	result.AvailableCount = record.AvailableCount
	result.TotalCount = record.TotalCount
	result.RecordID = record.ID
	result.Degraded = len(degraded)
	return result, nil
}

// SearchRandom runs a search for a term picked from RandomTerms
func (s *SearchService) SearchRandom(ctx context.Context, accountID string) (SearchResult, error) {
	return s.Search(ctx, accountID, s.pickTerm())
}

// IsQuotaExceeded reports whether err denies a search for quota reasons
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

func windowChanged(before, after models.Account) bool {
	return before.SearchesUsed != after.SearchesUsed || !before.SearchesResetDate.Equal(after.SearchesResetDate)
}
