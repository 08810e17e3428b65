package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snatch/internal/config"
	"snatch/internal/database"
	"snatch/internal/database/sqlstore"
	"snatch/internal/models"
	"snatch/internal/services"
)

type storeFactory func(t *testing.T) services.AccountStore

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) services.AccountStore {
			return database.NewMemoryStore()
		},
		"gorm": func(t *testing.T) services.AccountStore {
			db, err := database.Open(&config.DatabaseConfig{Type: "gorm", Path: filepath.Join(t.TempDir(), "snatch.db")})
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close(db) })
			return database.NewGormStore(db)
		},
		"sqlx": func(t *testing.T) services.AccountStore {
			store, err := sqlstore.Open(filepath.Join(t.TempDir(), "nested", "snatch.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}

func testAccount(id, email string) models.Account {
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return models.Account{
		ID:                id,
		Email:             email,
		PasswordHash:      "hash",
		Plan:              models.PlanFree,
		SearchesUsed:      1,
		SearchesResetDate: time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
		CreatedAt:         created,
	}
}

func TestStore_Accounts(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			_, err := store.GetAccount(ctx, "missing")
			assert.ErrorIs(t, err, services.ErrNotFound)

			_, err = store.GetAccountByEmail(ctx, "nobody@example.com")
			assert.ErrorIs(t, err, services.ErrNotFound)

			account := testAccount("a1", "ada@example.com")
			require.NoError(t, store.PutAccount(ctx, account))

			got, err := store.GetAccount(ctx, "a1")
			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", got.Email)
			assert.Equal(t, models.PlanFree, got.Plan)
			assert.Equal(t, 1, got.SearchesUsed)
			assert.True(t, got.SearchesResetDate.Equal(account.SearchesResetDate))
			assert.Nil(t, got.BillingDate)

			billed := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
			got.Plan = models.PlanEnterprise
			got.SearchesUsed = 0
			got.BillingDate = &billed
			require.NoError(t, store.PutAccount(ctx, got))

			byEmail, err := store.GetAccountByEmail(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.Equal(t, "a1", byEmail.ID)
			assert.Equal(t, models.PlanEnterprise, byEmail.Plan)
			assert.Equal(t, 0, byEmail.SearchesUsed)
			require.NotNil(t, byEmail.BillingDate)
			assert.True(t, byEmail.BillingDate.Equal(billed))

			err = store.PutAccount(ctx, testAccount("a2", "ada@example.com"))
			assert.ErrorIs(t, err, services.ErrConflict)

			require.NoError(t, store.PutAccount(ctx, testAccount("a3", "bob@example.com")))
			accounts, err := store.ListAccounts(ctx)
			require.NoError(t, err)
			require.Len(t, accounts, 2)
			assert.Equal(t, "a1", accounts[0].ID)
			assert.Equal(t, "a3", accounts[1].ID)
		})
	}
}

func TestStore_SearchesNewestFirst(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			require.NoError(t, store.PutAccount(ctx, testAccount("a1", "ada@example.com")))

			base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
			first := models.SearchRecord{
				ID:         "s1",
				AccountID:  "a1",
				SearchTerm: "Coffee",
				Results: []models.NameResult{
					{Name: "Coffee", Available: true, Domain: true, Trademark: true, Business: true, Score: 80},
					{Name: "CoffeeCo", Social: true, Score: 20},
				},
				Timestamp:      base,
				AvailableCount: 1,
				TotalCount:     2,
			}
			second := models.SearchRecord{
				ID:         "s2",
				AccountID:  "a1",
				SearchTerm: "Tea",
				Results:    []models.NameResult{},
				Timestamp:  base.Add(time.Minute),
			}
			require.NoError(t, store.AppendSearch(ctx, first))
			require.NoError(t, store.AppendSearch(ctx, second))

			records, err := store.ListSearches(ctx, "a1")
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "s2", records[0].ID)
			assert.Equal(t, "s1", records[1].ID)
			assert.Equal(t, []models.NameResult(first.Results), []models.NameResult(records[1].Results))
			assert.Equal(t, 1, records[1].AvailableCount)
			assert.Equal(t, 2, records[1].TotalCount)
			assert.True(t, records[1].Timestamp.Equal(base))

			other, err := store.ListSearches(ctx, "a2")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestStore_BillingAndClaims(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			require.NoError(t, store.PutAccount(ctx, testAccount("a1", "ada@example.com")))

			base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.AppendBilling(ctx, models.BillingRecord{
				ID: "b1", AccountID: "a1", Amount: 19, PlanLabel: "Professional Plan", Date: base, Status: models.BillingPaid,
			}))
			require.NoError(t, store.AppendBilling(ctx, models.BillingRecord{
				ID: "b2", AccountID: "a1", Amount: 49, PlanLabel: "Enterprise Plan", Date: base.Add(time.Hour), Status: models.BillingPaid,
			}))

			records, err := store.ListBilling(ctx, "a1")
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "b2", records[0].ID)
			assert.InDelta(t, 49.0, records[0].Amount, 0.001)
			assert.Equal(t, models.BillingPaid, records[0].Status)
			assert.Equal(t, "Professional Plan", records[1].PlanLabel)

			require.NoError(t, store.AppendClaim(ctx, models.Claim{ID: "c1", AccountID: "a1", Name: "CoffeeHub", ClaimedAt: base}))
			require.NoError(t, store.AppendClaim(ctx, models.Claim{ID: "c2", AccountID: "a1", Name: "CoffeeLabs", ClaimedAt: base.Add(time.Second)}))
			err = store.AppendClaim(ctx, models.Claim{ID: "c3", AccountID: "a1", Name: "CoffeeHub", ClaimedAt: base})
			assert.ErrorIs(t, err, services.ErrConflict)

			claims, err := store.ListClaims(ctx, "a1")
			require.NoError(t, err)
			require.Len(t, claims, 2)
			assert.Equal(t, "CoffeeHub", claims[0].Name)
			assert.Equal(t, "CoffeeLabs", claims[1].Name)
		})
	}
}
