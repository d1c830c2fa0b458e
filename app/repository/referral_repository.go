package repository

import (
	"github.com/ManuelReschke/LaunchPad/app/models"
	"gorm.io/gorm"
)

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) List(offset, limit int) ([]models.ReferralRecord, error) {
	var records []models.ReferralRecord
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	return records, err
}

func (r *referralRepository) ListByReferrer(referrerID uint) ([]models.ReferralRecord, error) {
	var records []models.ReferralRecord
	err := r.db.Where("referrer_id = ?", referrerID).Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *referralRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ReferralRecord{}).Count(&count).Error
	return count, err
}
