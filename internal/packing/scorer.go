package packing

import "github.com/eugenenazirov/box-packer/internal/geometry"

const (
	unstablePenalty   = 0.05
	minStabilityScale = 0.7
)

// Score rates a packed result as a volumetric efficiency percentage, scaled
// down by 5% for every non-stackable item carrying load, to at most 30%.
func Score(r Result) float64 {
	if len(r.Items) == 0 {
		return 0
	}

	containerVolume := r.Container.Volume()
	if containerVolume <= 0 {
		return 0
	}

	var used float64
	for _, it := range r.Items {
		used += it.Volume()
	}
	efficiency := used / containerVolume * 100

	if unstable := len(UnstableSet(r.Items)); unstable > 0 {
		efficiency *= StabilityMultiplier(unstable)
	}
	return efficiency
}

// StabilityMultiplier returns the factor applied for the given number of
// unstable items.
func StabilityMultiplier(unstable int) float64 {
	if unstable <= 0 {
		return 1
	}
	return max(minStabilityScale, 1-unstablePenalty*float64(unstable))
}

// UnstableSet returns the indexes of non-stackable items that have at least
// one other item above their footprint.
func UnstableSet(items []PlacedItem) map[int]struct{} {
	out := make(map[int]struct{})
	for i, it := range items {
		if it.CanStack {
			continue
		}
		for j, other := range items {
			if i != j && geometry.IsDirectlyAbove(other.Box(), it.Box()) {
				out[i] = struct{}{}
				break
			}
		}
	}
	return out
}
