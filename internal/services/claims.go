package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"snatch/internal/models"
)

var ErrInvalidName = errors.New("name is empty")

// ClaimService records names an account has decided to pursue
type ClaimService struct {
	store  AccountStore
	locks  *KeyedMutex
	notify Tracker
	clock  Clock
}

// NewClaimService creates a new claim service
func NewClaimService(store AccountStore, locks *KeyedMutex, notify Tracker, clock Clock) *ClaimService {
	if clock == nil {
		clock = SystemClock{}
	}
	if notify == nil {
		notify = (*NotifyService)(nil)
	}
	return &ClaimService{store: store, locks: locks, notify: notify, clock: clock}
}

// Claim stores a claim for name. Claiming the same name twice returns the first claim.
func (s *ClaimService) Claim(ctx context.Context, accountID, name string) (models.Claim, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Claim{}, ErrInvalidName
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return models.Claim{}, fmt.Errorf("get account by id: %w", err)
	}

	existing, err := s.store.ListClaims(ctx, accountID)
	if err != nil {
		return models.Claim{}, fmt.Errorf("list claims: %w", err)
	}
	for _, claim := range existing {
		if claim.Name == name {
			return claim, nil
		}
	}

	claim := models.Claim{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		ClaimedAt: s.clock.Now(),
	}
	if err := s.store.AppendClaim(ctx, claim); err != nil {
		return models.Claim{}, fmt.Errorf("save claim: %w", err)
	}

	s.notify.Track(ctx, claimEvent(accountID, name))
	return claim, nil
}

// ListClaims returns the claims of an account
func (s *ClaimService) ListClaims(ctx context.Context, accountID string) ([]models.Claim, error) {
	claims, err := s.store.ListClaims(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}
