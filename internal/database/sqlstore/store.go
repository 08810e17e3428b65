package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/datatypes"

	"snatch/internal/models"
	"snatch/internal/services"
)

// Store implements services.AccountStore with hand written SQL
type Store struct {
	db *sqlx.DB
}

var _ services.AccountStore = (*Store)(nil)

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

// accountRow maps the accounts table
type accountRow struct {
	ID                string        `db:"id"`
	Email             string        `db:"email"`
	PasswordHash      string        `db:"password_hash"`
	Plan              string        `db:"plan"`
	SearchesUsed      int           `db:"searches_used"`
	SearchesResetDate int64         `db:"searches_reset_date"`
	BillingDate       sql.NullInt64 `db:"billing_date"`
	CreatedAt         int64         `db:"created_at"`
	UpdatedAt         int64         `db:"updated_at"`
}

type searchRow struct {
	ID             string                                 `db:"id"`
	AccountID      string                                 `db:"account_id"`
	SearchTerm     string                                 `db:"search_term"`
	Results        datatypes.JSONSlice[models.NameResult] `db:"results"`
	Timestamp      int64                                  `db:"timestamp"`
	AvailableCount int                                    `db:"available_count"`
	TotalCount     int                                    `db:"total_count"`
}

type billingRow struct {
	ID        string  `db:"id"`
	AccountID string  `db:"account_id"`
	Amount    float64 `db:"amount"`
	PlanLabel string  `db:"plan_label"`
	Date      int64   `db:"date"`
	Status    string  `db:"status"`
}

type claimRow struct {
	ID        string `db:"id"`
	AccountID string `db:"account_id"`
	Name      string `db:"name"`
	ClaimedAt int64  `db:"claimed_at"`
}

func (s *Store) GetAccount(ctx context.Context, id string) (models.Account, error) {
	var row accountRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM accounts WHERE id = ?`, id); err != nil {
		return models.Account{}, translate(err, "account "+id)
	}
	return accountRowToModel(row), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var row accountRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM accounts WHERE email = ?`, email); err != nil {
		return models.Account{}, translate(err, "account "+email)
	}
	return accountRowToModel(row), nil
}

func (s *Store) PutAccount(ctx context.Context, account models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO accounts (id, email, password_hash, plan, searches_used, searches_reset_date, billing_date, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :plan, :searches_used, :searches_reset_date, :billing_date, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			plan = excluded.plan,
			searches_used = excluded.searches_used,
			searches_reset_date = excluded.searches_reset_date,
			billing_date = excluded.billing_date,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, accountModelToRow(account)); err != nil {
		return translate(err, "account "+account.ID)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM accounts ORDER BY created_at ASC, rowid ASC`); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, accountRowToModel(row))
	}
	return accounts, nil
}

func (s *Store) AppendSearch(ctx context.Context, record models.SearchRecord) error {
	query := `
		INSERT INTO search_records (id, account_id, search_term, results, timestamp, available_count, total_count)
		VALUES (:id, :account_id, :search_term, :results, :timestamp, :available_count, :total_count)
	`
	row := searchRow{
		ID:             record.ID,
		AccountID:      record.AccountID,
		SearchTerm:     record.SearchTerm,
		Results:        record.Results,
		Timestamp:      record.Timestamp.UnixNano(),
		AvailableCount: record.AvailableCount,
		TotalCount:     record.TotalCount,
	}
	if row.Results == nil {
		row.Results = datatypes.JSONSlice[models.NameResult]{}
	}
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return translate(err, "search "+record.ID)
	}
	return nil
}

func (s *Store) ListSearches(ctx context.Context, accountID string) ([]models.SearchRecord, error) {
	var rows []searchRow
	query := `SELECT * FROM search_records WHERE account_id = ? ORDER BY timestamp DESC, rowid DESC`
	if err := s.db.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}

	records := make([]models.SearchRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.SearchRecord{
			ID:             row.ID,
			AccountID:      row.AccountID,
			SearchTerm:     row.SearchTerm,
			Results:        row.Results,
			Timestamp:      fromUnix(row.Timestamp),
			AvailableCount: row.AvailableCount,
			TotalCount:     row.TotalCount,
		})
	}
	return records, nil
}

func (s *Store) AppendBilling(ctx context.Context, record models.BillingRecord) error {
	query := `
		INSERT INTO billing_records (id, account_id, amount, plan_label, date, status)
		VALUES (:id, :account_id, :amount, :plan_label, :date, :status)
	`
	row := billingRow{
		ID:        record.ID,
		AccountID: record.AccountID,
		Amount:    record.Amount,
		PlanLabel: record.PlanLabel,
		Date:      record.Date.UnixNano(),
		Status:    string(record.Status),
	}
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return translate(err, "billing record "+record.ID)
	}
	return nil
}

func (s *Store) ListBilling(ctx context.Context, accountID string) ([]models.BillingRecord, error) {
	var rows []billingRow
	query := `SELECT * FROM billing_records WHERE account_id = ? ORDER BY date DESC, rowid DESC`
	if err := s.db.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, fmt.Errorf("list billing: %w", err)
	}

	records := make([]models.BillingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.BillingRecord{
			ID:        row.ID,
			AccountID: row.AccountID,
			Amount:    row.Amount,
			PlanLabel: row.PlanLabel,
			Date:      fromUnix(row.Date),
			Status:    models.BillingStatus(row.Status),
		})
	}
	return records, nil
}

func (s *Store) AppendClaim(ctx context.Context, claim models.Claim) error {
	query := `
		INSERT INTO claims (id, account_id, name, claimed_at)
		VALUES (:id, :account_id, :name, :claimed_at)
	`
	row := claimRow{
		ID:        claim.ID,
		AccountID: claim.AccountID,
		Name:      claim.Name,
		ClaimedAt: claim.ClaimedAt.UnixNano(),
	}
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return translate(err, "claim "+claim.Name)
	}
	return nil
}

func (s *Store) ListClaims(ctx context.Context, accountID string) ([]models.Claim, error) {
	var rows []claimRow
	query := `SELECT * FROM claims WHERE account_id = ? ORDER BY claimed_at ASC, rowid ASC`
	if err := s.db.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	claims := make([]models.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, models.Claim{
			ID:        row.ID,
			AccountID: row.AccountID,
			Name:      row.Name,
			ClaimedAt: fromUnix(row.ClaimedAt),
		})
	}
	return claims, nil
}

func accountRowToModel(row accountRow) models.Account {
	account := models.Account{
		ID:                row.ID,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		Plan:              models.Plan(row.Plan),
		SearchesUsed:      row.SearchesUsed,
		SearchesResetDate: fromUnix(row.SearchesResetDate),
		CreatedAt:         fromUnix(row.CreatedAt),
		UpdatedAt:         fromUnix(row.UpdatedAt),
	}
	if row.BillingDate.Valid {
		billed := fromUnix(row.BillingDate.Int64)
		account.BillingDate = &billed
	}
	return account
}

func accountModelToRow(account models.Account) accountRow {
	row := accountRow{
		ID:                account.ID,
		Email:             account.Email,
		PasswordHash:      account.PasswordHash,
		Plan:              string(account.Plan),
		SearchesUsed:      account.SearchesUsed,
		SearchesResetDate: account.SearchesResetDate.UnixNano(),
		CreatedAt:         account.CreatedAt.UnixNano(),
		UpdatedAt:         account.UpdatedAt.UnixNano(),
	}
	if account.BillingDate != nil {
		row.BillingDate = sql.NullInt64{Int64: account.BillingDate.UnixNano(), Valid: true}
	}
	return row
}

func fromUnix(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

func translate(err error, what string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", what, services.ErrNotFound)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", what, services.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
