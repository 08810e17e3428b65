package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snatch/internal/models"
	"snatch/internal/services"

	"gorm.io/gorm"
)

// GormStore implements services.AccountStore on top of GORM
type GormStore struct {
	db *gorm.DB
}

var _ services.AccountStore = (*GormStore)(nil)

// NewGormStore creates a store backed by db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetAccount(ctx context.Context, id string) (models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return models.Account{}, translate(err, "account "+id)
	}
	return account, nil
}

func (s *GormStore) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return models.Account{}, translate(err, "account "+email)
	}
	return account, nil
}

func (s *GormStore) PutAccount(ctx context.Context, account models.Account) error {
	if err := s.db.WithContext(ctx).Save(&account).Error; err != nil {
		return translate(err, "account "+account.ID)
	}
	return nil
}

func (s *GormStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *GormStore) AppendSearch(ctx context.Context, record models.SearchRecord) error {
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translate(err, "search "+record.ID)
	}
	return nil
}

func (s *GormStore) ListSearches(ctx context.Context, accountID string) ([]models.SearchRecord, error) {
	var records []models.SearchRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC, rowid DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	return records, nil
}

func (s *GormStore) AppendBilling(ctx context.Context, record models.BillingRecord) error {
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translate(err, "billing record "+record.ID)
	}
	return nil
}

func (s *GormStore) ListBilling(ctx context.Context, accountID string) ([]models.BillingRecord, error) {
	var records []models.BillingRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("date DESC, rowid DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list billing: %w", err)
	}
	return records, nil
}

func (s *GormStore) AppendClaim(ctx context.Context, claim models.Claim) error {
	if err := s.db.WithContext(ctx).Create(&claim).Error; err != nil {
		return translate(err, "claim "+claim.Name)
	}
	return nil
}

func (s *GormStore) ListClaims(ctx context.Context, accountID string) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("claimed_at ASC, rowid ASC").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// translate maps driver errors onto the service sentinels
func translate(err error, what string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, services.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, services.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
