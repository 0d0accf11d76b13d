package packing

import (
	"cmp"
	"strings"
)

// Strategy selects the family of item orderings tried by the packer.
type Strategy string

const (
	StrategyBalanced               Strategy = "Balanced"
	StrategyMaximizeSpace          Strategy = "Maximize Space"
	StrategyPrioritizeStability    Strategy = "Prioritize Stability"
	StrategyMinimizeWeightShifting Strategy = "Minimize Weight Shifting"
)

// Strategies lists every supported strategy, default first.
func Strategies() []Strategy {
	return []Strategy{
		StrategyBalanced,
		StrategyMaximizeSpace,
		StrategyPrioritizeStability,
		StrategyMinimizeWeightShifting,
	}
}

// ParseStrategy resolves a strategy name case-insensitively, treating
// hyphens and underscores as spaces. An empty name selects Balanced.
func ParseStrategy(name string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", " ", "_", " ").Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	switch normalized {
	case "", "balanced", "balanced (default)":
		return StrategyBalanced, nil
	}
	for _, s := range Strategies() {
		if strings.ToLower(string(s)) == normalized {
			return s, nil
		}
	}
	return "", invalid("strategy", ErrUnknownStrategy)
}

// ordering is one candidate item order, compared key by key.
type ordering struct {
	name    string
	compare func(a, b ItemSpec) int
}

type sortKey func(a, b ItemSpec) int

func by(name string, keys ...sortKey) ordering {
	return ordering{
		name: name,
		compare: func(a, b ItemSpec) int {
			for _, key := range keys {
				if c := key(a, b); c != 0 {
					return c
				}
			}
			return 0
		},
	}
}

func volumeDesc(a, b ItemSpec) int { return cmp.Compare(b.Volume(), a.Volume()) }

func maxDimensionDesc(a, b ItemSpec) int {
	return cmp.Compare(max(b.Width, b.Height, b.Depth), max(a.Width, a.Height, a.Depth))
}

func footprintDesc(a, b ItemSpec) int { return cmp.Compare(b.Width*b.Height, a.Width*a.Height) }

func depthDesc(a, b ItemSpec) int { return cmp.Compare(b.Depth, a.Depth) }

func weightDesc(a, b ItemSpec) int { return cmp.Compare(b.Weight, a.Weight) }

// canStackAsc puts non-stackable items first.
func canStackAsc(a, b ItemSpec) int { return compareBool(a.CanStack, b.CanStack) }

// fragileAsc puts non-fragile items first.
func fragileAsc(a, b ItemSpec) int { return compareBool(a.Fragile, b.Fragile) }

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

var spaceOrderings = []ordering{
	by("volume desc, max dimension desc", volumeDesc, maxDimensionDesc),
	by("max dimension desc, volume desc", maxDimensionDesc, volumeDesc),
	by("footprint desc, depth desc", footprintDesc, depthDesc),
}

var strategyOrderings = map[Strategy][]ordering{
	StrategyMaximizeSpace: spaceOrderings,
	StrategyPrioritizeStability: {
		by("non-stackable first, weight desc, volume desc", canStackAsc, weightDesc, volumeDesc),
		by("weight desc, non-stackable first, volume desc", weightDesc, canStackAsc, volumeDesc),
	},
	StrategyMinimizeWeightShifting: {
		by("weight desc, volume desc", weightDesc, volumeDesc),
		by("non-fragile first, weight desc, volume desc", fragileAsc, weightDesc, volumeDesc),
	},
	StrategyBalanced: append(append([]ordering(nil), spaceOrderings...),
		by("weight desc, volume desc", weightDesc, volumeDesc),
		by("non-stackable first, volume desc", canStackAsc, volumeDesc),
	),
}

// orderingsFor returns the first maxAttempts orderings of the strategy.
func orderingsFor(s Strategy, maxAttempts int) []ordering {
	all := strategyOrderings[s]
	if maxAttempts < len(all) {
		return all[:maxAttempts]
	}
	return all
}

// OrderingNames lists the orderings a strategy would try, in order.
func OrderingNames(s Strategy) []string {
	all := strategyOrderings[s]
	names := make([]string, 0, len(all))
	for _, o := range all {
		names = append(names, o.name)
	}
	return names
}
