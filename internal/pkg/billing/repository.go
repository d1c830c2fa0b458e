package billing

import (
	"time"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by checkout and the webhook processor.
type Repository interface {
	GetAccountByID(id uint) (*models.Account, error)
	GetAccountByReferralCode(code string) (*models.Account, error)
	UpdateAccountTier(id uint, tier entitlements.Tier, purchasedAt time.Time) error
	SetStripeCustomerID(accountID uint, customerID string) error
	CreateReferralIfNotExists(record *models.ReferralRecord) (bool, error)
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db       *gorm.DB
	accounts repository.AccountRepository
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, accounts: repository.NewAccountRepository(db)}
}

func (r *gormRepository) GetAccountByID(id uint) (*models.Account, error) {
	return r.accounts.GetByID(id)
}

func (r *gormRepository) GetAccountByReferralCode(code string) (*models.Account, error) {
	return r.accounts.GetByReferralCode(code)
}

func (r *gormRepository) UpdateAccountTier(id uint, tier entitlements.Tier, purchasedAt time.Time) error {
	return r.accounts.UpdateTier(id, tier, &purchasedAt)
}

func (r *gormRepository) SetStripeCustomerID(accountID uint, customerID string) error {
	return r.accounts.SetStripeCustomerID(accountID, customerID)
}

// CreateReferralIfNotExists inserts at most one referral per Stripe event.
func (r *gormRepository) CreateReferralIfNotExists(record *models.ReferralRecord) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_event_id"}},
		DoNothing: true,
	}).Create(record)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
