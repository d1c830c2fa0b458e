package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

func TestDayUsesUTC(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	assert.Equal(t, "2026-02-28", Day(time.Date(2026, 3, 1, 0, 30, 0, 0, berlin)))
	assert.Equal(t, "2026-03-01", Day(time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)))
}

func TestDailyCaps(t *testing.T) {
	assert.Equal(t, 10, DailyCap(entitlements.ToolNiche))
	assert.Equal(t, 10, DailyCap(entitlements.ToolAuthority))
	assert.Equal(t, 5, DailyCap(entitlements.ToolDealmaker))
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.Increment(ctx, 1, entitlements.ToolNiche, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, _ = s.Increment(ctx, 1, entitlements.ToolNiche, "2026-03-01")

	got, _ := s.Count(ctx, 1, entitlements.ToolNiche, "2026-03-01")
	assert.Equal(t, 2, got)
	got, _ = s.Count(ctx, 1, entitlements.ToolNiche, "2026-03-02")
	assert.Equal(t, 0, got)
	got, _ = s.Count(ctx, 2, entitlements.ToolNiche, "2026-03-01")
	assert.Equal(t, 0, got)
	got, _ = s.Count(ctx, 1, entitlements.ToolDealmaker, "2026-03-01")
	assert.Equal(t, 0, got)
}

func TestUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	for i := 0; i < 6; i++ {
		_, _ = s.Increment(ctx, 9, entitlements.ToolDealmaker, Day(now))
	}
	_, _ = s.Increment(ctx, 9, entitlements.ToolNiche, Day(now))

	usage, err := Usage(ctx, s, 9, now)
	require.NoError(t, err)
	require.Len(t, usage, 3)
	assert.Equal(t, ToolUsage{Tool: entitlements.ToolNiche, Used: 1, Limit: 10, Remaining: 9}, usage[0])
	assert.Equal(t, ToolUsage{Tool: entitlements.ToolAuthority, Used: 0, Limit: 10, Remaining: 10}, usage[1])
	assert.Equal(t, ToolUsage{Tool: entitlements.ToolDealmaker, Used: 6, Limit: 5, Remaining: 0}, usage[2])
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)

	got, err := s.Count(ctx, 3, entitlements.ToolAuthority, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	for i := 1; i <= 3; i++ {
		n, err := s.Increment(ctx, 3, entitlements.ToolAuthority, "2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	got, err = s.Count(ctx, 3, entitlements.ToolAuthority, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	key := "ratelimit:3:authority:2026-03-01"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, counterTTL, mr.TTL(key))

	mr.FastForward(counterTTL + time.Second)
	got, err = s.Count(ctx, 3, entitlements.ToolAuthority, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var counterColumns = []string{"id", "account_id", "tool", "day", "count", "updated_at"}

func TestRedisStoreConcurrentIncrementsAreNotLost(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Increment(ctx, 9, entitlements.ToolDealmaker, "2026-03-01")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Count(ctx, 9, entitlements.ToolDealmaker, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}

func TestGormStoreCountMissingRowIsZero(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `rate_limit_counters`").
		WillReturnRows(sqlmock.NewRows(counterColumns))

	got, err := NewGormStore(db).Count(context.Background(), 1, entitlements.ToolNiche, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreIncrementCreatesRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `rate_limit_counters`").
		WillReturnRows(sqlmock.NewRows(counterColumns))
	mock.ExpectExec("INSERT INTO `rate_limit_counters`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := NewGormStore(db).Increment(context.Background(), 1, entitlements.ToolNiche, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreIncrementUpdatesExistingRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `rate_limit_counters`").
		WillReturnRows(sqlmock.NewRows(counterColumns).
			AddRow(4, 1, "niche", "2026-03-01", 9, time.Now()))
	mock.ExpectExec("UPDATE `rate_limit_counters` SET `count`=").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := NewGormStore(db).Increment(context.Background(), 1, entitlements.ToolNiche, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 10, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
