package ratelimit

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// GormStore persists counters in rate_limit_counters.
//
// Increment reads the current row and writes count+1, so two concurrent
// increments for the same account and tool can lose one. The Redis store
// never loses increments. With either store the cap stays soft: the gateway
// checks Count before the upstream call and increments after it, so
// concurrent requests can all pass the check.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) find(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (*models.RateLimitCounter, error) {
	var counter models.RateLimitCounter
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND tool = ? AND day = ?", accountID, string(tool), day).
		Take(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (s *GormStore) Count(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (int, error) {
	counter, err := s.find(ctx, accountID, tool, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Count, nil
}

func (s *GormStore) Increment(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (int, error) {
	counter, err := s.find(ctx, accountID, tool, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = &models.RateLimitCounter{AccountID: accountID, Tool: tool, Day: day, Count: 1}
		// A concurrent first request may have inserted the row already.
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "tool"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).Create(counter).Error
		if err != nil {
			return 0, err
		}
		return counter.Count, nil
	}
	if err != nil {
		return 0, err
	}

	next := counter.Count + 1
	if err := s.db.WithContext(ctx).Model(counter).Update("count", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
