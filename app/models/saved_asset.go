package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ASSET_TYPE_NICHE    = "niche"
	ASSET_TYPE_CONTENT  = "content"
	ASSET_TYPE_CONTRACT = "contract"
	ASSET_TYPE_PROMPT   = "prompt"
)

type SavedAsset struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AccountID uint           `gorm:"not null;index" json:"-"`
	Type      string         `gorm:"type:varchar(20);not null;index" json:"type" validate:"required,oneof=niche content contract prompt"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Content   string         `gorm:"type:longtext;not null" json:"content" validate:"required"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *SavedAsset) Validate() error {
	return validator.New().Struct(a)
}
