package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snatch/internal/models"
)

const minPasswordLength = 6

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// AccountService handles signup, sign-in and account reads
type AccountService struct {
	store  AccountStore
	auth   *AuthService
	quota  *QuotaGate
	locks  *KeyedMutex
	notify Tracker
	clock  Clock
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store AccountStore, auth *AuthService, quota *QuotaGate, locks *KeyedMutex, notify Tracker, clock Clock, logger *zap.Logger) *AccountService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = (*NotifyService)(nil)
	}
	return &AccountService{
		store:  store,
		auth:   auth,
		quota:  quota,
		locks:  locks,
		notify: notify,
		clock:  clock,
		logger: logger,
	}
}

// Signup creates a free account for a new email address
func (s *AccountService) Signup(ctx context.Context, email, password string) (models.Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Account{}, err
	}
	if len(password) < minPasswordLength {
		return models.Account{}, ErrWeakPassword
	}

	unlock := s.locks.Lock("email:" + email)
	defer unlock()

	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return models.Account{}, ErrDuplicateAccount
	} else if !errors.Is(err, ErrNotFound) {
		return models.Account{}, fmt.Errorf("get account by email: %w", err)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	account := models.Account{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      hash,
		Plan:              models.PlanFree,
		SearchesUsed:      0,
		SearchesResetDate: NextMonth(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.PutAccount(ctx, account); err != nil {
		return models.Account{}, fmt.Errorf("save account: %w", err)
	}

	s.logger.Info("account created", zap.String("account_id", account.ID))
	s.notify.Track(ctx, signupEvent(account.ID))

	return account, nil
}

// SignIn verifies credentials and returns the matching account
func (s *AccountService) SignIn(ctx context.Context, email, password string) (models.Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Account{}, err
	}

	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Account{}, fmt.Errorf("no account found with this email: %w", ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("get account by email: %w", err)
	}

	if !s.auth.CheckPassword(account.PasswordHash, password) {
		return models.Account{}, ErrInvalidCredentials
	}

	s.notify.Track(ctx, loginEvent(account.ID))
	return account, nil
}

// Get returns an account by id
func (s *AccountService) Get(ctx context.Context, id string) (models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return models.Account{}, fmt.Errorf("get account by id: %w", err)
	}
	return account, nil
}

// RemainingSearches reports how many searches are left this window, -1 when unlimited
func (s *AccountService) RemainingSearches(account models.Account) int {
	return s.quota.Remaining(account, s.clock.Now())
}

// GetAccountStats aggregates the stored searches of an account
func (s *AccountService) GetAccountStats(ctx context.Context, id string) (models.AccountStats, error) {
	if _, err := s.store.GetAccount(ctx, id); err != nil {
		return models.AccountStats{}, fmt.Errorf("get account by id: %w", err)
	}

	searches, err := s.store.ListSearches(ctx, id)
	if err != nil {
		return models.AccountStats{}, fmt.Errorf("list searches: %w", err)
	}

	return computeStats(searches), nil
}

// ListSearches returns the search history of an account, newest first
func (s *AccountService) ListSearches(ctx context.Context, id string) ([]models.SearchRecord, error) {
	searches, err := s.store.ListSearches(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	return searches, nil
}

// ResetExpiredWindows starts a new window for every free account whose reset date passed
func (s *AccountService) ResetExpiredWindows(ctx context.Context) (int, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	reset := 0
	for _, candidate := range accounts {
		if candidate.Plan.Paid() || s.clock.Now().Before(candidate.SearchesResetDate) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return reset, err
		}

		ok, err := s.resetWindow(ctx, candidate.ID)
		if err != nil {
			s.logger.Warn("quota window reset failed", zap.String("account_id", candidate.ID), zap.Error(err))
			continue
		}
		if ok {
			reset++
		}
	}

	return reset, nil
}

func (s *AccountService) resetWindow(ctx context.Context, id string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	// reread under the lock, a search may have reset it already
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get account by id: %w", err)
	}

	now := s.clock.Now()
	account, ok := s.quota.ResetIfElapsed(account, now)
	if !ok {
		return false, nil
	}
	account.UpdatedAt = now
	if err := s.store.PutAccount(ctx, account); err != nil {
		return false, fmt.Errorf("save account: %w", err)
	}
	return true, nil
}

func computeStats(searches []models.SearchRecord) models.AccountStats {
	stats := models.AccountStats{TotalQueries: len(searches)}
	for _, search := range searches {
		stats.TotalGenerated += search.TotalCount
		stats.TotalAvailable += search.AvailableCount
	}
	if stats.TotalGenerated > 0 {
		stats.SuccessRate = int(math.Round(100 * float64(stats.TotalAvailable) / float64(stats.TotalGenerated)))
	}
	return stats
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
