package services

import (
	"context"

	"snatch/internal/models"
)

// AccountStore persists accounts and their append-only records.
// Lookups of unknown keys return ErrNotFound. Writes are last-write-wins.
type AccountStore interface {
	GetAccount(ctx context.Context, id string) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	PutAccount(ctx context.Context, account models.Account) error
	ListAccounts(ctx context.Context) ([]models.Account, error)

	AppendSearch(ctx context.Context, record models.SearchRecord) error
	ListSearches(ctx context.Context, accountID string) ([]models.SearchRecord, error)

	AppendBilling(ctx context.Context, record models.BillingRecord) error
	ListBilling(ctx context.Context, accountID string) ([]models.BillingRecord, error)

	AppendClaim(ctx context.Context, claim models.Claim) error
	ListClaims(ctx context.Context, accountID string) ([]models.Claim, error)
}
