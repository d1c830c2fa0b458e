package repository

import (
	"time"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"gorm.io/gorm"
)

type generationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(record *models.GenerationRecord) error {
	return r.db.Create(record).Error
}

func (r *generationRepository) GetByUUID(accountID uint, uuid string) (*models.GenerationRecord, error) {
	var record models.GenerationRecord
	err := r.db.Where("account_id = ? AND uuid = ?", accountID, uuid).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *generationRepository) ListByAccount(accountID uint, offset, limit int) ([]models.GenerationRecord, error) {
	var records []models.GenerationRecord
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	return records, err
}

func (r *generationRepository) CountByAccount(accountID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GenerationRecord{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}

func (r *generationRepository) MarkExported(id uint, key string, at time.Time) error {
	return r.db.Model(&models.GenerationRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"exported":    true,
		"exported_at": at,
		"export_key":  key,
	}).Error
}
