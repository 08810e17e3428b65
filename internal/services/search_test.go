package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"snatch/internal/models"
)

type searchFixture struct {
	store   *memStore
	clock   *fixedClock
	tracker *recordingTracker
	search  *SearchService
}

func newSearchFixture(t *testing.T, checkers map[Dimension]Checker) *searchFixture {
	t.Helper()
	f := &searchFixture{
		store:   newMemStore(),
		clock:   newFixedClock(testNow),
		tracker: &recordingTracker{},
	}
	prober := NewProber(checkers, ProberOptions{DefaultTimeout: time.Second}, zap.NewNop())
	f.search = NewSearchService(f.store, prober, NewQuotaGate(FreeSearchLimit), NewKeyedMutex(), f.tracker, f.clock, zap.NewNop())
	return f
}

func (f *searchFixture) put(t *testing.T, a models.Account) {
	t.Helper()
	require.NoError(t, f.store.PutAccount(context.Background(), a))
}

func TestSearch_FreeAccountFourthSearchDenied(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, false))
	f.put(t, freeAccount("a1"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := f.search.Search(ctx, "a1", "Coffee")
		require.NoError(t, err)
		assert.Equal(t, 12, res.TotalCount)
		assert.Equal(t, 12, res.AvailableCount)
	}

	account, err := f.store.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 3, account.SearchesUsed)
	assert.Equal(t, 3, f.store.searchCount())

	_, err = f.search.Search(ctx, "a1", "Coffee")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.True(t, IsQuotaExceeded(err))
	assert.Equal(t, 3, f.store.searchCount(), "denied search must not be recorded")

	account, err = f.store.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 3, account.SearchesUsed)
}

func TestSearch_ResultsRankedAndRecorded(t *testing.T) {
	checkers := staticCheckers(true, true, true, true)
	// only the bare term loses its trademark, everything else scores 100
	checkers[DimensionTrademark] = CheckerFunc(func(_ context.Context, name string) (bool, error) {
		return name != "Coffee", nil
	})
	f := newSearchFixture(t, checkers)
	f.put(t, freeAccount("a1"))

	res, err := f.search.Search(context.Background(), "a1", "Coffee")
	require.NoError(t, err)

	require.Len(t, res.Results, 12)
	assert.Equal(t, "CoffeeCo", res.Results[0].Name)
	assert.Equal(t, "CoffeeHub", res.Results[10].Name)
	last := res.Results[11]
	assert.Equal(t, "Coffee", last.Name)
	assert.Equal(t, 75, last.Score)
	assert.False(t, last.Available)
	assert.Equal(t, 11, res.AvailableCount)
	assert.Equal(t, 12, res.TotalCount)

	require.Equal(t, 1, f.store.searchCount())
	record := f.store.searches[0]
	assert.Equal(t, res.RecordID, record.ID)
	assert.Equal(t, "a1", record.AccountID)
	assert.Equal(t, "Coffee", record.SearchTerm)
	assert.Equal(t, 11, record.AvailableCount)
	assert.Equal(t, 12, record.TotalCount)
	assert.Equal(t, res.Results, []models.NameResult(record.Results))
	assert.Equal(t, testNow, record.Timestamp)

	assert.Equal(t, []string{EventSearch}, f.tracker.names())
}

func TestSearch_PaidAccountNotCharged(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, false, false, false))
	account := freeAccount("p1")
	account.Plan = models.PlanProfessional
	account.SearchesUsed = 3
	f.put(t, account)

	for i := 0; i < 5; i++ {
		_, err := f.search.Search(context.Background(), "p1", "Acme")
		require.NoError(t, err)
	}

	stored, err := f.store.GetAccount(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.SearchesUsed)
	assert.Equal(t, 5, f.store.searchCount())
}

func TestSearch_ElapsedWindowResetsBeforeCharging(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, true))
	account := freeAccount("a1")
	account.SearchesUsed = 3
	f.put(t, account)

	after := account.SearchesResetDate.Add(time.Hour)
	f.clock.Set(after)

	_, err := f.search.Search(context.Background(), "a1", "Acme")
	require.NoError(t, err)

	stored, err := f.store.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SearchesUsed)
	assert.True(t, stored.SearchesResetDate.Equal(NextMonth(after)))
}

func TestSearch_EmptyTermNotCharged(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, true))
	f.put(t, freeAccount("a1"))

	res, err := f.search.Search(context.Background(), "a1", "!!!")
	require.NoError(t, err)
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0, res.TotalCount)
	assert.Equal(t, 0, f.store.searchCount())

	stored, err := f.store.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SearchesUsed)
}

func TestSearch_CancelledNeitherRecordsNorCharges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blocking := CheckerFunc(func(ctx context.Context, _ string) (bool, error) {
		cancel()
		<-ctx.Done()
		return false, ctx.Err()
	})
	f := newSearchFixture(t, map[Dimension]Checker{
		DimensionDomain: blocking, DimensionTrademark: blocking, DimensionBusiness: blocking, DimensionSocial: blocking,
	})
	f.put(t, freeAccount("a1"))

	_, err := f.search.Search(ctx, "a1", "Coffee")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.store.searchCount())

	stored, err := f.store.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SearchesUsed)
}

func TestSearch_RecordFailureLeavesQuotaUntouched(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, true))
	f.put(t, freeAccount("a1"))
	f.store.searchErr = errBoom

	_, err := f.search.Search(context.Background(), "a1", "Coffee")
	require.ErrorIs(t, err, errBoom)

	stored, err := f.store.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SearchesUsed)
}

func TestSearch_TimedOutDimensionCountsUnavailable(t *testing.T) {
	checkers := staticCheckers(true, true, true, true)
	checkers[DimensionDomain] = CheckerFunc(func(ctx context.Context, _ string) (bool, error) {
		<-ctx.Done()
		return true, ctx.Err()
	})
	store := newMemStore()
	prober := NewProber(checkers, ProberOptions{DefaultTimeout: 10 * time.Millisecond}, nil)
	svc := NewSearchService(store, prober, NewQuotaGate(FreeSearchLimit), NewKeyedMutex(), nil, newFixedClock(testNow), nil)
	require.NoError(t, store.PutAccount(context.Background(), freeAccount("a1")))

	res, err := svc.Search(context.Background(), "a1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, 0, res.AvailableCount)
	assert.Equal(t, 12, res.Degraded)
	for _, r := range res.Results {
		assert.False(t, r.Domain)
		assert.Equal(t, 70, r.Score)
	}
}

func TestSearch_UnknownAccount(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, true))
	_, err := f.search.Search(context.Background(), "missing", "Coffee")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchRandom_UsesPickedTerm(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, true))
	f.put(t, freeAccount("a1"))
	f.search.pickTerm = func() string { return "Zenith" }

	res, err := f.search.SearchRandom(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Zenith", res.Term)
	assert.Equal(t, "Zenith", res.Results[0].Name)
	assert.Contains(t, RandomTerms, res.Term)
}

func TestSearch_ConcurrentSearchesNeverExceedQuota(t *testing.T) {
	f := newSearchFixture(t, staticCheckers(true, true, true, true))
	f.put(t, freeAccount("a1"))

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := f.search.Search(context.Background(), "a1", "Acme")
			errs <- err
		}()
	}

	succeeded, denied := 0, 0
	for i := 0; i < 10; i++ {
		if err := <-errs; err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrQuotaExceeded)
			denied++
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 7, denied)

	stored, err := f.store.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.SearchesUsed)
	assert.Equal(t, 3, f.store.searchCount())
}
