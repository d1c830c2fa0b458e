package repository

import (
	"time"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for account-related database operations
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByFirebaseUID(uid string) (*models.Account, error)
	// GetDeletedByFirebaseUID finds a soft-deleted account still holding uid.
	GetDeletedByFirebaseUID(uid string) (*models.Account, error)
	GetByReferralCode(code string) (*models.Account, error)
	Update(account *models.Account) error
	UpdateTier(id uint, tier entitlements.Tier, purchasedAt *time.Time) error
	SetStripeCustomerID(id uint, customerID string) error
	RevokeSessions(id uint, at time.Time) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Account, error)
	Count() (int64, error)
	Search(query string) ([]models.Account, error)
}

// GenerationRepository defines the interface for generation history
type GenerationRepository interface {
	Create(record *models.GenerationRecord) error
	GetByUUID(accountID uint, uuid string) (*models.GenerationRecord, error)
	ListByAccount(accountID uint, offset, limit int) ([]models.GenerationRecord, error)
	CountByAccount(accountID uint) (int64, error)
	MarkExported(id uint, key string, at time.Time) error
}

// AssetRepository defines the interface for saved assets. All lookups are
// scoped to the owning account.
type AssetRepository interface {
	Create(asset *models.SavedAsset) error
	GetByID(accountID, id uint) (*models.SavedAsset, error)
	ListByAccount(accountID uint, assetType string) ([]models.SavedAsset, error)
	Delete(accountID, id uint) error
}

// ReferralRepository defines read access to referral records
type ReferralRepository interface {
	List(offset, limit int) ([]models.ReferralRecord, error)
	ListByReferrer(referrerID uint) ([]models.ReferralRecord, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Account    AccountRepository
	Generation GenerationRepository
	Asset      AssetRepository
	Referral   ReferralRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:    NewAccountRepository(db),
		Generation: NewGenerationRepository(db),
		Asset:      NewAssetRepository(db),
		Referral:   NewReferralRepository(db),
	}
}
