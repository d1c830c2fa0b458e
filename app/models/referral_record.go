package models

import "time"

const (
	REFERRAL_STATUS_PENDING = "pending"
	REFERRAL_STATUS_PAID    = "paid"

	// ReferralCommissionPercent is the share of the purchase credited to the referrer.
	ReferralCommissionPercent = 20
)

// ReferralRecord is an attributed purchase. Amounts are in minor units (cents).
type ReferralRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferrerID     uint      `gorm:"not null;index" json:"referrer_id"`
	ReferredID     uint      `gorm:"not null;index" json:"referred_id"`
	ReferralCode   string    `gorm:"type:varchar(32);not null;index" json:"referral_code"`
	PurchaseAmount int64     `gorm:"not null" json:"purchase_amount"`
	Commission     int64     `gorm:"not null" json:"commission"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StripeEventID  string    `gorm:"type:varchar(191);uniqueIndex" json:"stripe_event_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Commission returns round(amount * 20%) using integer half-up rounding.
func Commission(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return (amount*ReferralCommissionPercent + 50) / 100
}
