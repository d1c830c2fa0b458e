package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// GenerationRecord is the history entry written after a successful AI generation.
type GenerationRecord struct {
	ID           uint              `gorm:"primaryKey" json:"-"`
	UUID         string            `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	AccountID    uint              `gorm:"not null;index:idx_generation_account_created,priority:1" json:"-"`
	ToolType     entitlements.Tool `gorm:"type:varchar(20);not null;index" json:"tool_type"`
	InputPayload string            `gorm:"type:text;not null" json:"input_payload"`
	OutputText   string            `gorm:"type:longtext;not null" json:"output_text"`
	Exported     bool              `gorm:"default:false" json:"exported"`
	ExportedAt   *time.Time        `gorm:"type:timestamp;default:null" json:"exported_at,omitempty"`
	ExportKey    string            `gorm:"type:varchar(255);default:''" json:"export_key,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index:idx_generation_account_created,priority:2" json:"created_at"`
}

func (g *GenerationRecord) BeforeCreate(tx *gorm.DB) error {
	if g.UUID == "" {
		g.UUID = uuid.NewString()
	}
	return nil
}
