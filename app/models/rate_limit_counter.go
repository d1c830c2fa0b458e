package models

import (
	"time"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// RateLimitCounter counts successful generations per account, tool and UTC day.
type RateLimitCounter struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	AccountID uint              `gorm:"not null;index:ux_rate_limit_account_tool_day,unique,priority:1" json:"account_id"`
	Tool      entitlements.Tool `gorm:"type:varchar(20);not null;index:ux_rate_limit_account_tool_day,unique,priority:2" json:"tool"`
	Day       string            `gorm:"type:char(10);not null;index:ux_rate_limit_account_tool_day,unique,priority:3" json:"day"`
	Count     int               `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
