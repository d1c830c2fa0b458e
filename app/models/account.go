package models

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/refcode"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

// Account is the local profile of a Firebase-authenticated user.
type Account struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	FirebaseUID       string            `gorm:"type:varchar(128);uniqueIndex;not null" json:"-" validate:"required,max=128"`
	Email             string            `gorm:"type:varchar(200);index" json:"email" validate:"omitempty,email,max=200"`
	Name              string            `gorm:"type:varchar(150);default:''" json:"name" validate:"max=150"`
	Role              string            `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Tier              entitlements.Tier `gorm:"type:varchar(20);default:'free';index" json:"tier" validate:"oneof=free sop caio launchpad"`
	StripeCustomerID  string            `gorm:"type:varchar(191);default:null" json:"-"`
	ReferralCode      string            `gorm:"type:varchar(32);uniqueIndex" json:"referral_code"`
	LastPurchaseAt    *time.Time        `gorm:"type:timestamp;default:null" json:"last_purchase_at,omitempty"`
	SessionsRevokedAt *time.Time        `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}

// EntitlementTier implements entitlements.Holder. A nil account is free.
func (a *Account) EntitlementTier() entitlements.Tier {
	if a == nil {
		return entitlements.TierFree
	}
	return entitlements.NormalizeTier(string(a.Tier))
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == ROLE_ADMIN
}

func (a *Account) Validate() error {
	return validator.New().Struct(a)
}

// NewAccount builds a free-tier account for a freshly authenticated identity.
func NewAccount(firebaseUID, email, name string) (*Account, error) {
	code, err := GenerateReferralCode()
	if err != nil {
		return nil, err
	}
	a := &Account{
		FirebaseUID:  firebaseUID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		Role:         ROLE_USER,
		Tier:         entitlements.TierFree,
		ReferralCode: code,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// GenerateReferralCode returns a fresh code for a new account.
func GenerateReferralCode() (string, error) {
	return refcode.Generate(refcode.DefaultLength)
}

// SessionRevokedSince reports whether sessions issued at issuedAt were revoked.
func (a *Account) SessionRevokedSince(issuedAt time.Time) bool {
	return a.SessionsRevokedAt != nil && !issuedAt.After(*a.SessionsRevokedAt)
}

// AvatarURL returns the Gravatar image for the account email.
func (a *Account) AvatarURL(size int) string {
	if size <= 0 {
		size = 200
	}
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(a.Email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
