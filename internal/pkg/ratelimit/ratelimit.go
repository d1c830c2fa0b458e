// Package ratelimit tracks successful AI generations per account, tool and
// UTC calendar day.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

const dayLayout = "2006-01-02"

var dailyCaps = map[entitlements.Tool]int{
	entitlements.ToolNiche:     10,
	entitlements.ToolAuthority: 10,
	entitlements.ToolDealmaker: 5,
}

// DailyCap returns the number of generations allowed per UTC day.
func DailyCap(tool entitlements.Tool) int {
	return dailyCaps[tool]
}

// Day returns the UTC calendar day key for t.
func Day(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// Store counts successful generations. Counters are created lazily.
type Store interface {
	Count(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (int, error)
	Increment(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (int, error)
}

// ToolUsage is today's usage of a single tool.
type ToolUsage struct {
	Tool      entitlements.Tool `json:"tool"`
	Used      int               `json:"used"`
	Limit     int               `json:"limit"`
	Remaining int               `json:"remaining"`
}

// Usage reports today's usage for every tool.
func Usage(ctx context.Context, store Store, accountID uint, now time.Time) ([]ToolUsage, error) {
	day := Day(now)
	out := make([]ToolUsage, 0, len(entitlements.AllTools))
	for _, tool := range entitlements.AllTools {
		used, err := store.Count(ctx, accountID, tool, day)
		if err != nil {
			return nil, fmt.Errorf("count %s usage: %w", tool, err)
		}
		limit := DailyCap(tool)
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, ToolUsage{Tool: tool, Used: used, Limit: limit, Remaining: remaining})
	}
	return out, nil
}

type memoryKey struct {
	accountID uint
	tool      entitlements.Tool
	day       string
}

// MemoryStore keeps counters in process memory. Used in tests and local runs.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[memoryKey]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: map[memoryKey]int{}}
}

func (s *MemoryStore) Count(_ context.Context, accountID uint, tool entitlements.Tool, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[memoryKey{accountID, tool, day}], nil
}

func (s *MemoryStore) Increment(_ context.Context, accountID uint, tool entitlements.Tool, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memoryKey{accountID, tool, day}
	s.counts[k]++
	return s.counts[k], nil
}
