package packing

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	layerThickness         = 5.0
	lowEfficiencyThreshold = 70.0
)

// LayerUtilization is the share of a horizontal slab of the container
// occupied by items whose bottom face starts inside it.
type LayerUtilization struct {
	From        float64 `json:"from"`
	To          float64 `json:"to"`
	Utilization float64 `json:"utilization"`
}

// StabilityWarning describes a non-stackable item that carries other items.
type StabilityWarning struct {
	Item       string   `json:"item"`
	Supporting []string `json:"supporting"`
	Message    string   `json:"message"`
}

// Analytics summarises a packing result for display.
type Analytics struct {
	Packed           int                `json:"packed"`
	Submitted        int                `json:"submitted"`
	Layers           []LayerUtilization `json:"layers"`
	BottomHalfWeight float64            `json:"bottomHalfWeight"`
	TopHalfWeight    float64            `json:"topHalfWeight"`
	FragileInTopHalf []string           `json:"fragileInTopHalf,omitempty"`
	Warnings         []StabilityWarning `json:"warnings,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
}

// Analyze computes layer utilization, weight distribution, stability
// warnings and recommendations for an annotated result. submitted is the
// number of items the user asked to pack.
func Analyze(r Result, submitted int) Analytics {
	a := Analytics{Packed: len(r.Items), Submitted: submitted}

	layers := make(map[float64]float64)
	midpoint := r.Container.Depth / 2
	for _, it := range r.Items {
		layer := math.Floor(it.Position.Z/layerThickness) * layerThickness
		layers[layer] += it.Volume()

		if it.Position.Z < midpoint {
			a.BottomHalfWeight += it.Weight
		} else {
			a.TopHalfWeight += it.Weight
		}
		if it.Fragile && it.Position.Z > midpoint {
			a.FragileInTopHalf = append(a.FragileInTopHalf, it.Name)
		}
		if it.Unstable {
			a.Warnings = append(a.Warnings, StabilityWarning{
				Item:       it.Name,
				Supporting: append([]string(nil), it.LoadedBy...),
				Message: fmt.Sprintf("%s is supporting %d items but isn't marked as stackable: %s",
					it.Name, len(it.LoadedBy), strings.Join(it.LoadedBy, ", ")),
			})
		}
	}

	slabVolume := r.Container.Width * r.Container.Height * layerThickness
	starts := make([]float64, 0, len(layers))
	for start := range layers {
		starts = append(starts, start)
	}
	sort.Float64s(starts)
	for _, start := range starts {
		var utilization float64
		if slabVolume > 0 {
			utilization = layers[start] / slabVolume * 100
		}
		a.Layers = append(a.Layers, LayerUtilization{
			From:        start,
			To:          start + layerThickness,
			Utilization: utilization,
		})
	}

	if r.Efficiency < lowEfficiencyThreshold {
		a.Recommendations = append(a.Recommendations,
			"Try rotating the box dimensions",
			"Mark more items as stackable if possible",
			"Consider using a slightly larger box",
		)
	}
	if len(a.FragileInTopHalf) > 0 {
		a.Recommendations = append(a.Recommendations,
			"Mark more items as fragile to prioritize bottom placement",
			"Use more packing material on top",
			fmt.Sprintf("Try the '%s' packing strategy", StrategyPrioritizeStability),
		)
	}
	return a
}
