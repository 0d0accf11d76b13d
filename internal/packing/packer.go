// Package packing searches for a good arrangement of items in a container.
// It tries several item orderings per strategy, hands each to a placement
// solver, scores the results for space use and stacking stability, and keeps
// the best one.
package packing

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/metrics"
	"github.com/eugenenazirov/box-packer/internal/solver"
)

const (
	stackableWeightFactor = 1.5
	fragileWeightFactor   = 2.0

	fallbackOrdering = "input order (fallback)"
)

// Packer describes the behaviour required from a packing search.
type Packer interface {
	Pack(ctx context.Context, req Request) (Result, error)
}

type strategyPacker struct {
	solver solver.Solver
	logger *zap.Logger
	clock  func() time.Time
}

// Option configures the packer built by New.
type Option func(*strategyPacker)

// WithClock overrides the time source used for duration metrics.
func WithClock(clock func() time.Time) Option {
	return func(p *strategyPacker) {
		p.clock = clock
	}
}

// New creates a Packer that delegates placement to s.
func New(s solver.Solver, logger *zap.Logger, opts ...Option) Packer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &strategyPacker{solver: s, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *strategyPacker) Pack(ctx context.Context, req Request) (Result, error) {
	req, err := req.Normalize()
	if err != nil {
		return Result{}, err
	}
	start := p.clock()

	var (
		best     Result
		bestSet  bool
		attempts int
	)
	for _, container := range containerOrientations(req.Container, req.Options.TryContainerOrientations) {
		res, n, err := p.search(ctx, req, container)
		attempts += n
		if err != nil {
			return Result{}, err
		}
		if !bestSet || res.Efficiency > best.Efficiency {
			best, bestSet = res, true
		}
	}

	best.Attempts = attempts
	best.Strategy = req.Strategy
	if best.Feasible() {
		best.Outcome = OutcomePacked
	} else {
		best.Outcome = OutcomeInfeasible
		p.logger.Info("no item fits the container",
			zap.String("container", req.Container.Name),
			zap.Int("items", len(req.Items)),
		)
	}

	metrics.RecordPack(string(req.Strategy), string(best.Outcome), p.clock().Sub(start))
	return best, nil
}

// search runs every ordering of the strategy against one container
// orientation and falls back to a plain smaller-first run when nothing fit.
func (p *strategyPacker) search(ctx context.Context, req Request, container ContainerSpec) (Result, int, error) {
	var (
		best     Result
		bestSet  bool
		attempts int
	)

	for _, ord := range orderingsFor(req.Strategy, req.MaxAttempts) {
		if err := ctx.Err(); err != nil {
			return Result{}, attempts, err
		}

		sorted := slices.Clone(req.Items)
		slices.SortStableFunc(sorted, ord.compare)

		attempts++
		res, err := p.attempt(ctx, container, sorted, solver.Request{
			Bin:         solverBin(container),
			Items:       solverItems(sorted, req.Options, true),
			BiggerFirst: true,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, attempts, ctxErr
			}
			metrics.RecordAttempt(metrics.AttemptSolverError)
			p.logger.Warn("solver failed, skipping ordering",
				zap.String("ordering", ord.name),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordAttempt(metrics.AttemptScored)
		res.Ordering = ord.name

		p.logger.Debug("ordering scored",
			zap.String("container", container.Name),
			zap.String("ordering", ord.name),
			zap.Int("placed", len(res.Items)),
			zap.Float64("score", res.Efficiency),
		)

		if !bestSet || res.Efficiency > best.Efficiency {
			best, bestSet = res, true
		}
	}

	if bestSet && best.Feasible() {
		return best, attempts, nil
	}

	attempts++
	fallback, err := p.attempt(ctx, container, req.Items, solver.Request{
		Bin:             solverBin(container),
		Items:           solverItems(req.Items, req.Options, false),
		BiggerFirst:     false,
		DistributeItems: true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, attempts, ctxErr
		}
		p.logger.Warn("fallback solver run failed", zap.Error(err))
		metrics.RecordAttempt(metrics.AttemptSolverError)
		return emptyResult(container, req.Items), attempts, nil
	}
	metrics.RecordAttempt(metrics.AttemptFallback)
	fallback.Ordering = fallbackOrdering
	fallback.Fallback = true
	return fallback, attempts, nil
}

// attempt runs the solver once and turns its answer into an annotated,
// scored result. specs must be indexed the same way as sreq.Items.
func (p *strategyPacker) attempt(ctx context.Context, container ContainerSpec, specs []ItemSpec, sreq solver.Request) (Result, error) {
	resp, err := p.solver.Solve(ctx, sreq)
	if err != nil {
		return Result{}, err
	}

	res := Result{Container: container}
	for _, placed := range resp.Placed {
		if placed.Item.ID < 0 || placed.Item.ID >= len(specs) {
			return Result{}, errUnknownPlacement
		}
		spec := specs[placed.Item.ID]
		res.Items = append(res.Items, PlacedItem{
			Name:              spec.Name,
			Position:          placed.Position,
			Dimension:         placed.Dimension,
			OriginalDimension: spec.Dimension(),
			Weight:            spec.Weight,
			EffectiveWeight:   placed.Item.Weight,
			Rotation:          placed.Rotation,
			CanStack:          spec.CanStack,
			Fragile:           spec.Fragile,
		})
	}
	for _, unfit := range resp.Unfitted {
		res.Unfitted = append(res.Unfitted, unfit.Name)
	}

	res = Annotate(res)
	res.Efficiency = Score(res)
	return res, nil
}

var errUnknownPlacement = errors.New("solver returned an item that was not submitted")

// EffectiveWeight inflates the weight of stackable items, and of fragile
// items when prioritizeFragile is set, to bias the solver's placement.
func EffectiveWeight(item ItemSpec, prioritizeFragile bool) float64 {
	multiplier := 1.0
	if item.CanStack {
		multiplier *= stackableWeightFactor
	}
	if item.Fragile && prioritizeFragile {
		multiplier *= fragileWeightFactor
	}
	return item.Weight * multiplier
}

func solverBin(c ContainerSpec) solver.Bin {
	return solver.Bin{
		Name:      c.Name,
		Width:     c.Width,
		Height:    c.Height,
		Depth:     c.Depth,
		MaxWeight: c.MaxWeight,
	}
}

func solverItems(specs []ItemSpec, opts Options, inflate bool) []solver.Item {
	items := make([]solver.Item, 0, len(specs))
	for i, spec := range specs {
		weight := spec.Weight
		if inflate {
			weight = EffectiveWeight(spec, opts.PrioritizeFragile)
		}
		items = append(items, solver.Item{
			ID:            i,
			Name:          spec.Name,
			Width:         spec.Width,
			Height:        spec.Height,
			Depth:         spec.Depth,
			Weight:        weight,
			AllowRotation: opts.AllowRotation,
		})
	}
	return items
}

func emptyResult(container ContainerSpec, specs []ItemSpec) Result {
	res := Result{Container: container, Ordering: fallbackOrdering, Fallback: true}
	for _, spec := range specs {
		res.Unfitted = append(res.Unfitted, spec.Name)
	}
	return res
}

// containerOrientations returns the container as given and, when enabled,
// the two alternatives that swap width or depth into the height axis.
func containerOrientations(c ContainerSpec, enabled bool) []ContainerSpec {
	out := []ContainerSpec{c}
	if !enabled {
		return out
	}
	for _, alt := range []ContainerSpec{
		{Name: c.Name, Width: c.Height, Height: c.Width, Depth: c.Depth, MaxWeight: c.MaxWeight},
		{Name: c.Name, Width: c.Depth, Height: c.Height, Depth: c.Width, MaxWeight: c.MaxWeight},
	} {
		if !slices.Contains(out, alt) {
			out = append(out, alt)
		}
	}
	return out
}
