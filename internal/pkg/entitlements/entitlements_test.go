package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type holder Tier

func (h holder) EntitlementTier() Tier { return Tier(h) }

func TestHasAccessFollowsRank(t *testing.T) {
	for _, have := range AllTiers {
		for _, need := range AllTiers {
			got := HasAccess(holder(have), need)
			want := have.Rank() >= need.Rank()
			assert.Equal(t, want, got, "have=%s need=%s", have, need)
		}
	}
}

func TestHasAccessNilHolderIsFree(t *testing.T) {
	assert.True(t, HasAccess(nil, TierFree))
	assert.False(t, HasAccess(nil, TierSOP))
}

func TestRankIsInjective(t *testing.T) {
	seen := map[int]Tier{}
	for i, tier := range AllTiers {
		assert.Equal(t, i, tier.Rank())
		_, dup := seen[tier.Rank()]
		assert.False(t, dup)
		seen[tier.Rank()] = tier
	}
	assert.Equal(t, 0, Tier("gold").Rank())
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{in: "free", want: TierFree, ok: true},
		{in: "SOP", want: TierSOP, ok: true},
		{in: " caio ", want: TierCAIO, ok: true},
		{in: "launchpad", want: TierLaunchpad, ok: true},
		{in: "premium", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseTier(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, TierFree, NormalizeTier("premium"))
}

func TestHigher(t *testing.T) {
	assert.Equal(t, TierLaunchpad, Higher(TierLaunchpad, TierSOP))
	assert.Equal(t, TierCAIO, Higher(TierFree, TierCAIO))
}

func TestHasToolRequiresLaunchpad(t *testing.T) {
	for _, tool := range AllTools {
		assert.False(t, HasTool(holder(TierCAIO), tool))
		assert.True(t, HasTool(holder(TierLaunchpad), tool))
	}
	assert.False(t, HasTool(nil, ToolNiche))
}

func TestCoursesFor(t *testing.T) {
	courses := CoursesFor(holder(TierCAIO))
	unlocked := map[string]bool{}
	for _, c := range courses {
		unlocked[c.Slug] = c.Unlocked
	}
	assert.True(t, unlocked["sop-playbook"])
	assert.True(t, unlocked["chief-ai-officer"])
	assert.False(t, unlocked["launchpad-accelerator"])

	_, ok := CourseBySlug("missing")
	assert.False(t, ok)
}
