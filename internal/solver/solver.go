// Package solver places boxes into a single container. It is the placement
// engine behind the packing strategies: given a bin and a set of items it
// returns the items that fit, each with a resolved position and orientation.
//
// PivotSolver places every item at the first free pivot point, trying the
// corners spawned by already placed items along the width, height and depth
// axes in turn, and every orientation the item allows.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/eugenenazirov/box-packer/internal/geometry"
)

const defaultDecimals = 2

var (
	// ErrInvalidBin is returned when the bin has a non-positive dimension.
	ErrInvalidBin = errors.New("bin dimensions must be positive")
	// ErrInvalidItem is returned when an item has a non-positive dimension or a negative weight.
	ErrInvalidItem = errors.New("item dimensions must be positive and weight non-negative")
)

// RotationType identifies one of the six axis-aligned orientations of a box.
type RotationType int

// The letters name which original extent ends up on the X, Y and Z axes.
const (
	RotationWHD RotationType = iota
	RotationHWD
	RotationHDW
	RotationDHW
	RotationDWH
	RotationWDH
)

var allRotations = []RotationType{RotationWHD, RotationHWD, RotationHDW, RotationDHW, RotationDWH, RotationWDH}

// String returns the orientation code, e.g. "WHD".
func (r RotationType) String() string {
	switch r {
	case RotationWHD:
		return "WHD"
	case RotationHWD:
		return "HWD"
	case RotationHDW:
		return "HDW"
	case RotationDHW:
		return "DHW"
	case RotationDWH:
		return "DWH"
	case RotationWDH:
		return "WDH"
	default:
		return fmt.Sprintf("RotationType(%d)", int(r))
	}
}

// Bin is the container to pack into.
type Bin struct {
	Name      string
	Width     float64
	Height    float64
	Depth     float64
	MaxWeight float64
}

// Item is a box submitted to the solver. ID is opaque to the solver and is
// carried through to the placement so callers can map results back.
type Item struct {
	ID            int
	Name          string
	Width         float64
	Height        float64
	Depth         float64
	Weight        float64
	AllowRotation bool
}

// Volume returns the item's volume.
func (i Item) Volume() float64 {
	return i.Width * i.Height * i.Depth
}

// Dimension returns the extent of the item in the given orientation.
func (i Item) Dimension(r RotationType) geometry.Vec3 {
	switch r {
	case RotationHWD:
		return geometry.Vec3{X: i.Height, Y: i.Width, Z: i.Depth}
	case RotationHDW:
		return geometry.Vec3{X: i.Height, Y: i.Depth, Z: i.Width}
	case RotationDHW:
		return geometry.Vec3{X: i.Depth, Y: i.Height, Z: i.Width}
	case RotationDWH:
		return geometry.Vec3{X: i.Depth, Y: i.Width, Z: i.Height}
	case RotationWDH:
		return geometry.Vec3{X: i.Width, Y: i.Depth, Z: i.Height}
	default:
		return geometry.Vec3{X: i.Width, Y: i.Height, Z: i.Depth}
	}
}

// Placement is an item the solver managed to fit.
type Placement struct {
	Item      Item
	Position  geometry.Vec3
	Dimension geometry.Vec3
	Rotation  RotationType
}

// Box returns the placed item's bounding box.
func (p Placement) Box() geometry.Box {
	return geometry.Box{Origin: p.Position, Size: p.Dimension}
}

// Request describes a single solver run.
type Request struct {
	Bin   Bin
	Items []Item
	// BiggerFirst orders items by descending volume before placement,
	// ascending otherwise. The order between equal volumes is preserved.
	BiggerFirst bool
	// DistributeItems removes placed items from the pool before moving on to
	// the next bin. With a single bin it has no observable effect.
	DistributeItems bool
}

// Response lists the placed items in placement order and the items that did
// not fit.
type Response struct {
	Placed   []Placement
	Unfitted []Item
}

// Solver places items into a bin.
type Solver interface {
	Solve(ctx context.Context, req Request) (Response, error)
}

// PivotSolver is the default Solver.
type PivotSolver struct {
	decimals int
}

// Option configures a PivotSolver.
type Option func(*PivotSolver)

// WithDecimals sets the precision every dimension and weight is rounded to
// before placement.
func WithDecimals(n int) Option {
	return func(s *PivotSolver) {
		if n >= 0 {
			s.decimals = n
		}
	}
}

// NewPivotSolver creates a PivotSolver.
func NewPivotSolver(opts ...Option) *PivotSolver {
	s := &PivotSolver{decimals: defaultDecimals}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve implements Solver.
func (s *PivotSolver) Solve(ctx context.Context, req Request) (Response, error) {
	bin := Bin{
		Name:      req.Bin.Name,
		Width:     s.round(req.Bin.Width),
		Height:    s.round(req.Bin.Height),
		Depth:     s.round(req.Bin.Depth),
		MaxWeight: s.round(req.Bin.MaxWeight),
	}
	if bin.Width <= 0 || bin.Height <= 0 || bin.Depth <= 0 {
		return Response{}, ErrInvalidBin
	}

	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		it.Width = s.round(it.Width)
		it.Height = s.round(it.Height)
		it.Depth = s.round(it.Depth)
		it.Weight = s.round(it.Weight)
		if it.Width <= 0 || it.Height <= 0 || it.Depth <= 0 || it.Weight < 0 {
			return Response{}, fmt.Errorf("%w: %q", ErrInvalidItem, it.Name)
		}
		items = append(items, it)
	}

	slices.SortStableFunc(items, func(a, b Item) int {
		if req.BiggerFirst {
			return compareFloat(b.Volume(), a.Volume())
		}
		return compareFloat(a.Volume(), b.Volume())
	})

	st := &binState{bin: bin}
	var resp Response
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		if !st.pack(it) {
			resp.Unfitted = append(resp.Unfitted, it)
		}
	}
	resp.Placed = st.placed
	return resp, nil
}

func (s *PivotSolver) round(v float64) float64 {
	p := math.Pow(10, float64(s.decimals))
	return math.Round(v*p) / p
}

type binState struct {
	bin         Bin
	placed      []Placement
	totalWeight float64
}

// pack tries the origin for an empty bin, otherwise the corners of every
// placed item along X, then Y, then Z.
func (b *binState) pack(it Item) bool {
	if len(b.placed) == 0 {
		return b.put(it, geometry.Vec3{})
	}

	for axis := 0; axis < 3; axis++ {
		for _, p := range b.placed {
			pivot := p.Position
			switch axis {
			case 0:
				pivot.X += p.Dimension.X
			case 1:
				pivot.Y += p.Dimension.Y
			default:
				pivot.Z += p.Dimension.Z
			}
			if b.put(it, pivot) {
				return true
			}
		}
	}
	return false
}

func (b *binState) put(it Item, pivot geometry.Vec3) bool {
	rotations := allRotations
	if !it.AllowRotation {
		rotations = allRotations[:1]
	}

	for _, r := range rotations {
		dim := it.Dimension(r)
		if b.bin.Width < pivot.X+dim.X || b.bin.Height < pivot.Y+dim.Y || b.bin.Depth < pivot.Z+dim.Z {
			continue
		}

		candidate := Placement{Item: it, Position: pivot, Dimension: dim, Rotation: r}
		if b.collides(candidate) {
			continue
		}
		if b.totalWeight+it.Weight > b.bin.MaxWeight {
			// Weight does not depend on orientation.
			return false
		}

		b.placed = append(b.placed, candidate)
		b.totalWeight += it.Weight
		return true
	}
	return false
}

func (b *binState) collides(c Placement) bool {
	for _, p := range b.placed {
		if intersects(p, c) {
			return true
		}
	}
	return false
}

// intersects reports a strictly positive overlap volume between two placements.
func intersects(a, b Placement) bool {
	return overlapAxis(a.Position.X, a.Dimension.X, b.Position.X, b.Dimension.X) &&
		overlapAxis(a.Position.Y, a.Dimension.Y, b.Position.Y, b.Dimension.Y) &&
		overlapAxis(a.Position.Z, a.Dimension.Z, b.Position.Z, b.Dimension.Z)
}

func overlapAxis(p1, d1, p2, d2 float64) bool {
	c1 := p1 + d1/2
	c2 := p2 + d2/2
	return math.Abs(c1-c2) < (d1+d2)/2
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
