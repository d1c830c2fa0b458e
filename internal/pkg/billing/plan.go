package billing

import (
	"strings"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// PriceTable maps Stripe price ids to the tier they grant.
type PriceTable map[string]entitlements.Tier

// Resolve returns the tier a single price grants.
func (t PriceTable) Resolve(priceID string) (entitlements.Tier, bool) {
	tier, ok := t[strings.TrimSpace(priceID)]
	return tier, ok
}

// ResolveBestTier picks the highest tier among the mapped price ids.
// Unmapped and duplicate ids are skipped. ok is false when nothing maps.
func (t PriceTable) ResolveBestTier(priceIDs []string) (entitlements.Tier, bool) {
	best := entitlements.TierFree
	found := false
	seen := make(map[string]struct{}, len(priceIDs))

	for _, raw := range priceIDs {
		ref := strings.TrimSpace(raw)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}

		tier, ok := t[ref]
		if !ok {
			continue
		}
		if !found || tier.Rank() > best.Rank() {
			found = true
			best = tier
		}
	}
	return best, found
}

// applyTierPolicy returns the tier to store given the current and purchased tier.
func applyTierPolicy(policy string, current, purchased entitlements.Tier) entitlements.Tier {
	if policy == TierPolicyHighest {
		return entitlements.Higher(current, purchased)
	}
	return purchased
}
