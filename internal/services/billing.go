package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snatch/internal/models"
)

// PlanPrices are the fixed monthly amounts of the paid plans, in USD
var PlanPrices = map[models.Plan]float64{
	models.PlanProfessional: 19.00,
	models.PlanEnterprise:   49.00,
}

// BillingService applies plan changes. Payment capture happens upstream;
// an upgrade here always records a paid charge.
type BillingService struct {
	store  AccountStore
	locks  *KeyedMutex
	notify Tracker
	clock  Clock
	logger *zap.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(store AccountStore, locks *KeyedMutex, notify Tracker, clock Clock, logger *zap.Logger) *BillingService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = (*NotifyService)(nil)
	}
	return &BillingService{
		store:  store,
		locks:  locks,
		notify: notify,
		clock:  clock,
		logger: logger,
	}
}

// Upgrade moves an account to a paid plan, restarts its quota window and
// appends one billing record. Repeated calls are charged every time.
func (s *BillingService) Upgrade(ctx context.Context, accountID string, plan models.Plan) (models.Account, models.BillingRecord, error) {
	amount, ok := PlanPrices[plan]
	if !ok {
		return models.Account{}, models.BillingRecord{}, fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return models.Account{}, models.BillingRecord{}, fmt.Errorf("get account by id: %w", err)
	}

	now := s.clock.Now()
	account, record := applyUpgrade(account, plan, amount, now)

	// account first: a failure in between grants the plan without a charge, never the reverse
	if err := s.store.PutAccount(ctx, account); err != nil {
		return models.Account{}, models.BillingRecord{}, fmt.Errorf("save account plan: %w", err)
	}
	if err := s.store.AppendBilling(context.WithoutCancel(ctx), record); err != nil {
		return models.Account{}, models.BillingRecord{}, fmt.Errorf("save billing record: %w", err)
	}

	s.logger.Info("plan upgraded",
		zap.String("account_id", accountID),
		zap.String("plan", string(plan)),
		zap.Float64("amount", amount))
	s.notify.Track(ctx, purchaseEvent(accountID, string(plan), amount))

	return account, record, nil
}

// ListBilling returns the billing history of an account, newest first
func (s *BillingService) ListBilling(ctx context.Context, accountID string) ([]models.BillingRecord, error) {
	records, err := s.store.ListBilling(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list billing records: %w", err)
	}
	return records, nil
}

func applyUpgrade(account models.Account, plan models.Plan, amount float64, now time.Time) (models.Account, models.BillingRecord) {
	billingDate := now
	account.Plan = plan
	account.BillingDate = &billingDate
	account.SearchesUsed = 0
	account.SearchesResetDate = NextMonth(now)
	account.UpdatedAt = now

	record := models.BillingRecord{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Amount:    amount,
		PlanLabel: plan.Label(),
		Date:      now,
		Status:    models.BillingPaid,
	}
	return account, record
}
