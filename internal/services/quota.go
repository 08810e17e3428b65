package services

import (
	"sync"
	"time"

	"snatch/internal/models"
)

// FreeSearchLimit is the number of searches a free account gets per billing window
const FreeSearchLimit = 3

// QuotaGate decides whether an account may search and tracks consumption.
// Paid accounts are unlimited; free accounts are metered per monthly window.
// Every method takes an account by value and returns the updated copy.
type QuotaGate struct {
	limit int
}

// NewQuotaGate creates a gate allowing limit searches per window on the free plan
func NewQuotaGate(limit int) *QuotaGate {
	if limit <= 0 {
		limit = FreeSearchLimit
	}
	return &QuotaGate{limit: limit}
}

// Limit returns the free plan search cap
func (g *QuotaGate) Limit() int {
	return g.limit
}

// Authorize permits or denies a search. When the current window has elapsed
// the returned account starts a fresh window.
func (g *QuotaGate) Authorize(account models.Account, now time.Time) (models.Account, error) {
	if account.Plan.Paid() {
		return account, nil
	}

	account, _ = g.ResetIfElapsed(account, now)
	if account.SearchesUsed >= g.limit {
		return account, &QuotaExceededError{
			Limit:   g.limit,
			Used:    account.SearchesUsed,
			ResetAt: account.SearchesResetDate,
		}
	}
	return account, nil
}

// RecordUsage consumes one search. It must follow a successful Authorize;
// a free account already at the cap is refused rather than pushed past it.
func (g *QuotaGate) RecordUsage(account models.Account) (models.Account, error) {
	if account.Plan.Paid() {
		return account, nil
	}
	if account.SearchesUsed >= g.limit {
		return account, &QuotaExceededError{
			Limit:   g.limit,
			Used:    account.SearchesUsed,
			ResetAt: account.SearchesResetDate,
		}
	}
	account.SearchesUsed++
	return account, nil
}

// ResetIfElapsed starts a new window for a free account whose reset date has passed
func (g *QuotaGate) ResetIfElapsed(account models.Account, now time.Time) (models.Account, bool) {
	if account.Plan.Paid() || now.Before(account.SearchesResetDate) {
		return account, false
	}
	account.SearchesUsed = 0
	account.SearchesResetDate = NextMonth(now)
	return account, true
}

// Remaining returns the searches left in the current window, or -1 when unlimited
func (g *QuotaGate) Remaining(account models.Account, now time.Time) int {
	if account.Plan.Paid() {
		return -1
	}
	account, _ = g.ResetIfElapsed(account, now)
	if left := g.limit - account.SearchesUsed; left > 0 {
		return left
	}
	return 0
}

// NextMonth returns the same day of the following month, clamped to that
// month's last day (Jan 31 becomes Feb 28 or Feb 29).
func NextMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// KeyedMutex serializes work per key while letting different keys proceed in parallel
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty lock table
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock function
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
