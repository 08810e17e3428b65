package models

import "time"

// BillingStatus is the settlement state of a billing record
type BillingStatus string

const (
	BillingPaid    BillingStatus = "paid"
	BillingPending BillingStatus = "pending"
	BillingFailed  BillingStatus = "failed"
)

// BillingRecord is an append-only charge for a plan change
type BillingRecord struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	AccountID string        `gorm:"index;not null" json:"account_id"`
	Amount    float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	PlanLabel string        `gorm:"not null" json:"plan"`
	Date      time.Time     `gorm:"index" json:"date"`
	Status    BillingStatus `gorm:"type:text;not null" json:"status"`
}
