package packing

import (
	"github.com/eugenenazirov/box-packer/internal/geometry"
	"github.com/eugenenazirov/box-packer/internal/solver"
)

// DefaultMaxWeight is the weight capacity, in kilograms, given to every
// container unless the caller overrides it.
const DefaultMaxWeight = 1000.0

// DefaultContainerName names a container given only by its dimensions.
const DefaultContainerName = "Custom"

// ItemSpec is a product the user wants packed. Dimensions are in centimetres
// and weight in kilograms.
type ItemSpec struct {
	Name     string  `json:"name" yaml:"name"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Depth    float64 `json:"depth" yaml:"depth"`
	Weight   float64 `json:"weight" yaml:"weight"`
	CanStack bool    `json:"canStack" yaml:"can_stack"`
	Fragile  bool    `json:"fragile" yaml:"fragile"`
}

// Volume returns the item's volume.
func (s ItemSpec) Volume() float64 {
	return s.Width * s.Height * s.Depth
}

// Dimension returns the declared extent of the item.
func (s ItemSpec) Dimension() geometry.Vec3 {
	return geometry.Vec3{X: s.Width, Y: s.Height, Z: s.Depth}
}

// ContainerSpec is the box being packed into.
type ContainerSpec struct {
	Name      string  `json:"name" yaml:"name"`
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
	Depth     float64 `json:"depth" yaml:"depth"`
	MaxWeight float64 `json:"maxWeight,omitempty" yaml:"max_weight,omitempty"`
}

// Volume returns the container's volume.
func (c ContainerSpec) Volume() float64 {
	return c.Width * c.Height * c.Depth
}

// Extent returns the container dimensions as a vector.
func (c ContainerSpec) Extent() geometry.Vec3 {
	return geometry.Vec3{X: c.Width, Y: c.Height, Z: c.Depth}
}

// Options tune how items are handed to the solver.
type Options struct {
	AllowRotation            bool `json:"allowRotation" yaml:"allow_rotation"`
	PrioritizeFragile        bool `json:"prioritizeFragile" yaml:"prioritize_fragile"`
	TryContainerOrientations bool `json:"tryContainerOrientations" yaml:"try_container_orientations"`
}

// DefaultOptions allows rotation and prioritizes fragile items.
func DefaultOptions() Options {
	return Options{AllowRotation: true, PrioritizeFragile: true}
}

// Request carries every input that influences a packing result.
type Request struct {
	Container   ContainerSpec `json:"container" yaml:"container"`
	Items       []ItemSpec    `json:"items" yaml:"items"`
	Strategy    Strategy      `json:"strategy" yaml:"strategy"`
	MaxAttempts int           `json:"maxAttempts" yaml:"max_attempts"`
	Options     Options       `json:"options" yaml:"options"`
}

// PlacedItem is an item after the solver assigned it a position and
// orientation. Weight is the item's true weight; EffectiveWeight is the
// inflated value the solver worked with.
type PlacedItem struct {
	Name              string              `json:"name"`
	Position          geometry.Vec3       `json:"position"`
	Dimension         geometry.Vec3       `json:"dimension"`
	OriginalDimension geometry.Vec3       `json:"originalDimension"`
	Weight            float64             `json:"weight"`
	EffectiveWeight   float64             `json:"effectiveWeight"`
	Rotation          solver.RotationType `json:"rotation"`
	CanStack          bool                `json:"canStack"`
	Fragile           bool                `json:"fragile"`
	Unstable          bool                `json:"unstable"`
	LoadedBy          []string            `json:"loadedBy,omitempty"`
	RestingOn         []string            `json:"restingOn,omitempty"`
}

// Box returns the placed bounding box.
func (p PlacedItem) Box() geometry.Box {
	return geometry.Box{Origin: p.Position, Size: p.Dimension}
}

// Volume returns the placed volume.
func (p PlacedItem) Volume() float64 {
	return p.Dimension.Volume()
}

// Outcome tells a successful packing apart from one where nothing fit.
type Outcome string

const (
	OutcomePacked     Outcome = "packed"
	OutcomeInfeasible Outcome = "infeasible"
)

// Result is the best arrangement found for a request. Items are kept in the
// order the solver placed them.
type Result struct {
	Container  ContainerSpec `json:"container"`
	Items      []PlacedItem  `json:"items"`
	Unfitted   []string      `json:"unfitted,omitempty"`
	Efficiency float64       `json:"efficiency"`
	Strategy   Strategy      `json:"strategy"`
	Ordering   string        `json:"ordering"`
	Attempts   int           `json:"attempts"`
	Fallback   bool          `json:"fallback"`
	Outcome    Outcome       `json:"outcome"`
}

// Feasible reports whether at least one item was placed.
func (r Result) Feasible() bool {
	return len(r.Items) > 0
}

// UnstableItems returns the names of items flagged as unstable.
func (r Result) UnstableItems() []string {
	var out []string
	for _, it := range r.Items {
		if it.Unstable {
			out = append(out, it.Name)
		}
	}
	return out
}

// Clone returns a deep copy so cached results cannot be mutated by callers.
func (r Result) Clone() Result {
	out := r
	out.Items = make([]PlacedItem, len(r.Items))
	for i, it := range r.Items {
		it.LoadedBy = append([]string(nil), it.LoadedBy...)
		it.RestingOn = append([]string(nil), it.RestingOn...)
		out.Items[i] = it
	}
	out.Unfitted = append([]string(nil), r.Unfitted...)
	return out
}
