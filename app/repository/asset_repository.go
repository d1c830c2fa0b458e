package repository

import (
	"github.com/ManuelReschke/LaunchPad/app/models"
	"gorm.io/gorm"
)

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(asset *models.SavedAsset) error {
	return r.db.Create(asset).Error
}

func (r *assetRepository) GetByID(accountID, id uint) (*models.SavedAsset, error) {
	var asset models.SavedAsset
	if err := r.db.Where("account_id = ?", accountID).First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListByAccount returns the account's assets, optionally filtered by type.
func (r *assetRepository) ListByAccount(accountID uint, assetType string) ([]models.SavedAsset, error) {
	var assets []models.SavedAsset
	q := r.db.Where("account_id = ?", accountID)
	if assetType != "" {
		q = q.Where("type = ?", assetType)
	}
	err := q.Order("created_at DESC").Find(&assets).Error
	return assets, err
}

func (r *assetRepository) Delete(accountID, id uint) error {
	res := r.db.Where("account_id = ?", accountID).Delete(&models.SavedAsset{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
