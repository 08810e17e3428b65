package models

import (
	"time"

	"gorm.io/datatypes"
)

// NameResult is the scored availability verdict for one candidate name
type NameResult struct {
	Name      string `json:"name"`
	Available bool   `json:"available"` // domain && trademark && business
	Domain    bool   `json:"domain"`
	Trademark bool   `json:"trademark"`
	Business  bool   `json:"business"`
	Social    bool   `json:"social"`
	Score     int    `json:"score"` // 0..100
}

// SearchRecord is the persisted outcome of one completed search
type SearchRecord struct {
	ID             string                          `gorm:"primaryKey;size:36" json:"id"`
	AccountID      string                          `gorm:"index;not null" json:"account_id"`
	SearchTerm     string                          `gorm:"not null" json:"search_term"`
	Results        datatypes.JSONSlice[NameResult] `gorm:"type:text" json:"results"`
	Timestamp      time.Time                       `gorm:"index" json:"timestamp"`
	AvailableCount int                             `json:"available_count"`
	TotalCount     int                             `json:"total_count"`
}

// Claim marks a name an account has decided to pursue
type Claim struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID string    `gorm:"uniqueIndex:idx_claim_account_name;not null" json:"account_id"`
	Name      string    `gorm:"uniqueIndex:idx_claim_account_name;not null" json:"name"`
	ClaimedAt time.Time `json:"claimed_at"`
}
