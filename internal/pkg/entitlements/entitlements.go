package entitlements

import "strings"

type Tier string

const (
	TierFree      Tier = "free"
	TierSOP       Tier = "sop"
	TierCAIO      Tier = "caio"
	TierLaunchpad Tier = "launchpad"
)

// AllTiers lists every tier in ascending rank.
var AllTiers = []Tier{TierFree, TierSOP, TierCAIO, TierLaunchpad}

// Rank returns the position of the tier in the purchase hierarchy.
// Unknown values rank as free.
func (t Tier) Rank() int {
	switch t {
	case TierLaunchpad:
		return 3
	case TierCAIO:
		return 2
	case TierSOP:
		return 1
	default:
		return 0
	}
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier accepts only the four known tier names (case-insensitive).
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, true
	case TierSOP:
		return TierSOP, true
	case TierCAIO:
		return TierCAIO, true
	case TierLaunchpad:
		return TierLaunchpad, true
	default:
		return "", false
	}
}

// NormalizeTier maps anything unrecognised to free.
func NormalizeTier(s string) Tier {
	if t, ok := ParseTier(s); ok {
		return t
	}
	return TierFree
}

// Higher returns whichever of a and b ranks higher.
func Higher(a, b Tier) Tier {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Holder is anything that carries a purchased tier, usually *models.Account.
type Holder interface {
	EntitlementTier() Tier
}

func tierOf(h Holder) Tier {
	if h == nil {
		return TierFree
	}
	return h.EntitlementTier()
}

// HasAccess reports whether the holder's tier is at least the required tier.
// A holder without a profile is treated as free.
func HasAccess(h Holder, required Tier) bool {
	return tierOf(h).Rank() >= required.Rank()
}

type Tool string

const (
	ToolNiche     Tool = "niche"
	ToolAuthority Tool = "authority"
	ToolDealmaker Tool = "dealmaker"
)

// AllTools lists the AI tools in display order.
var AllTools = []Tool{ToolNiche, ToolAuthority, ToolDealmaker}

func ParseTool(s string) (Tool, bool) {
	switch Tool(strings.ToLower(strings.TrimSpace(s))) {
	case ToolNiche:
		return ToolNiche, true
	case ToolAuthority:
		return ToolAuthority, true
	case ToolDealmaker:
		return ToolDealmaker, true
	default:
		return "", false
	}
}

var toolTiers = map[Tool]Tier{
	ToolNiche:     TierLaunchpad,
	ToolAuthority: TierLaunchpad,
	ToolDealmaker: TierLaunchpad,
}

// ToolTier returns the minimum tier that unlocks the tool.
func ToolTier(tool Tool) Tier {
	if t, ok := toolTiers[tool]; ok {
		return t
	}
	return TierLaunchpad
}

// HasTool reports whether the holder may use the given AI tool.
func HasTool(h Holder, tool Tool) bool {
	return HasAccess(h, ToolTier(tool))
}
