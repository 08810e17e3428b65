package models

import (
	"fmt"
	"strings"
	"time"
)

// Plan is the subscription tier of an account
type Plan string

const (
	PlanFree         Plan = "free"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Paid reports whether the plan is a paid tier
func (p Plan) Paid() bool {
	return p == PlanProfessional || p == PlanEnterprise
}

// Label returns the human readable plan name used on billing records
func (p Plan) Label() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:] + " Plan"
}

// ParsePlan converts user input into a Plan
func ParsePlan(s string) (Plan, error) {
	switch Plan(strings.ToLower(strings.TrimSpace(s))) {
	case PlanFree:
		return PlanFree, nil
	case PlanProfessional:
		return PlanProfessional, nil
	case PlanEnterprise:
		return PlanEnterprise, nil
	default:
		return "", fmt.Errorf("unknown plan %q", s)
	}
}

// Account represents a registered user account
type Account struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string     `gorm:"not null" json:"-"`                            // bcrypt hash
	Plan              Plan       `gorm:"type:text;not null;default:free" json:"plan"`  // free/professional/enterprise
	SearchesUsed      int        `gorm:"not null;default:0" json:"searches_used"`      // only meaningful on free
	SearchesResetDate time.Time  `json:"searches_reset_date"`                          // next monthly boundary
	BillingDate       *time.Time `json:"billing_date,omitempty"`                       // set on first upgrade
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AccountStats summarizes the stored searches of one account
type AccountStats struct {
	TotalQueries   int `json:"total_queries"`
	TotalGenerated int `json:"total_generated"`
	TotalAvailable int `json:"total_available"`
	SuccessRate    int `json:"success_rate"` // percent
}
