package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/refcode"
	"gorm.io/gorm"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

func (r *accountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByFirebaseUID(uid string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("firebase_uid = ?", uid).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetDeletedByFirebaseUID(uid string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Unscoped().Where("firebase_uid = ? AND deleted_at IS NOT NULL", uid).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByReferralCode matches codes case-insensitively.
func (r *accountRepository) GetByReferralCode(code string) (*models.Account, error) {
	trimmed := refcode.Normalize(code)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var account models.Account
	if err := r.db.Where("referral_code = ?", trimmed).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}

// UpdateTier writes only the tier columns so a concurrent profile edit is not clobbered.
func (r *accountRepository) UpdateTier(id uint, tier entitlements.Tier, purchasedAt *time.Time) error {
	updates := map[string]interface{}{"tier": string(tier)}
	if purchasedAt != nil {
		updates["last_purchase_at"] = purchasedAt
	}
	res := r.db.Model(&models.Account{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports 0 affected rows when the values did not change.
	var count int64
	if err := r.db.Model(&models.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *accountRepository) SetStripeCustomerID(id uint, customerID string) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Update("stripe_customer_id", customerID).Error
}

func (r *accountRepository) RevokeSessions(id uint, at time.Time) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Update("sessions_revoked_at", at).Error
}

// Delete soft deletes an account by its ID
func (r *accountRepository) Delete(id uint) error {
	return r.db.Delete(&models.Account{}, id).Error
}

func (r *accountRepository) List(offset, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}

// Search searches for accounts by name or email
func (r *accountRepository) Search(query string) ([]models.Account, error) {
	var accounts []models.Account
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", searchPattern, searchPattern).
		Order("created_at DESC").Limit(100).Find(&accounts).Error
	return accounts, err
}
