package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/box-packer/internal/geometry"
)

func testBin(w, h, d float64) Bin {
	return Bin{Name: "box", Width: w, Height: h, Depth: d, MaxWeight: 1000}
}

func cube(id int, name string, size, weight float64) Item {
	return Item{ID: id, Name: name, Width: size, Height: size, Depth: size, Weight: weight, AllowRotation: true}
}

func TestSolve_PerfectFit(t *testing.T) {
	resp, err := NewPivotSolver().Solve(context.Background(), Request{
		Bin:         testBin(40, 30, 30),
		Items:       []Item{{Name: "A", Width: 40, Height: 30, Depth: 30, Weight: 1}},
		BiggerFirst: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Placed, 1)
	assert.Empty(t, resp.Unfitted)
	assert.Equal(t, geometry.Vec3{}, resp.Placed[0].Position)
	assert.Equal(t, geometry.Vec3{X: 40, Y: 30, Z: 30}, resp.Placed[0].Dimension)
	assert.Equal(t, RotationWHD, resp.Placed[0].Rotation)
}

func TestSolve_OversizedItemIsUnfitted(t *testing.T) {
	resp, err := NewPivotSolver().Solve(context.Background(), Request{
		Bin:   testBin(10, 10, 10),
		Items: []Item{cube(0, "big", 20, 1)},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Placed)
	require.Len(t, resp.Unfitted, 1)
	assert.Equal(t, "big", resp.Unfitted[0].Name)
}

func TestSolve_SecondItemUsesWidthPivot(t *testing.T) {
	resp, err := NewPivotSolver().Solve(context.Background(), Request{
		Bin:   testBin(20, 10, 10),
		Items: []Item{cube(0, "a", 10, 1), cube(1, "b", 10, 1)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Placed, 2)
	assert.Equal(t, geometry.Vec3{}, resp.Placed[0].Position)
	assert.Equal(t, geometry.Vec3{X: 10}, resp.Placed[1].Position)
}

func TestSolve_StacksAlongDepthWhenFloorIsFull(t *testing.T) {
	resp, err := NewPivotSolver().Solve(context.Background(), Request{
		Bin:   testBin(10, 10, 20),
		Items: []Item{cube(0, "a", 10, 1), cube(1, "b", 10, 1)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Placed, 2)
	assert.Equal(t, geometry.Vec3{Z: 10}, resp.Placed[1].Position)
}

func TestSolve_RotationPermission(t *testing.T) {
	item := Item{Name: "tall", Width: 30, Height: 40, Depth: 30, Weight: 1}

	t.Run("fixed orientation does not fit", func(t *testing.T) {
		resp, err := NewPivotSolver().Solve(context.Background(), Request{Bin: testBin(40, 30, 30), Items: []Item{item}})
		require.NoError(t, err)
		assert.Empty(t, resp.Placed)
	})

	t.Run("rotated fits", func(t *testing.T) {
		rotatable := item
		rotatable.AllowRotation = true
		resp, err := NewPivotSolver().Solve(context.Background(), Request{Bin: testBin(40, 30, 30), Items: []Item{rotatable}})
		require.NoError(t, err)
		require.Len(t, resp.Placed, 1)
		assert.Equal(t, RotationHWD, resp.Placed[0].Rotation)
		assert.Equal(t, geometry.Vec3{X: 40, Y: 30, Z: 30}, resp.Placed[0].Dimension)
	})
}

func TestSolve_WeightCapacity(t *testing.T) {
	bin := testBin(10, 10, 10)
	bin.MaxWeight = 10

	resp, err := NewPivotSolver().Solve(context.Background(), Request{
		Bin:   bin,
		Items: []Item{cube(0, "a", 1, 6), cube(1, "b", 1, 6)},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Placed, 1)
	require.Len(t, resp.Unfitted, 1)
	assert.Equal(t, "b", resp.Unfitted[0].Name)
}

func TestSolve_Ordering(t *testing.T) {
	items := []Item{cube(0, "small", 1, 1), cube(1, "big", 2, 1), cube(2, "small-2", 1, 1)}

	t.Run("bigger first", func(t *testing.T) {
		resp, err := NewPivotSolver().Solve(context.Background(), Request{Bin: testBin(10, 10, 10), Items: items, BiggerFirst: true})
		require.NoError(t, err)
		require.Len(t, resp.Placed, 3)
		assert.Equal(t, []string{"big", "small", "small-2"}, names(resp.Placed))
	})

	t.Run("smaller first keeps ties in input order", func(t *testing.T) {
		resp, err := NewPivotSolver().Solve(context.Background(), Request{Bin: testBin(10, 10, 10), Items: items})
		require.NoError(t, err)
		require.Len(t, resp.Placed, 3)
		assert.Equal(t, []string{"small", "small-2", "big"}, names(resp.Placed))
	})
}

func TestSolve_PlacementsStayInsideAndDoNotOverlap(t *testing.T) {
	var items []Item
	for i := 0; i < 12; i++ {
		items = append(items, Item{
			ID:            i,
			Name:          string(rune('a' + i)),
			Width:         float64(5 + i%4*3),
			Height:        float64(4 + i%3*4),
			Depth:         float64(6 + i%5*2),
			Weight:        1,
			AllowRotation: i%2 == 0,
		})
	}
	bin := testBin(30, 25, 20)

	resp, err := NewPivotSolver().Solve(context.Background(), Request{Bin: bin, Items: items, BiggerFirst: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Placed)
	assert.Equal(t, len(items), len(resp.Placed)+len(resp.Unfitted))

	extent := geometry.Vec3{X: bin.Width, Y: bin.Height, Z: bin.Depth}
	for i, p := range resp.Placed {
		assert.True(t, geometry.Within(p.Box(), extent, 1e-9), "placement %s escapes the bin", p.Item.Name)
		for _, q := range resp.Placed[i+1:] {
			assert.False(t, intersects(p, q), "%s overlaps %s", p.Item.Name, q.Item.Name)
		}
	}
}

func TestSolve_Deterministic(t *testing.T) {
	items := []Item{cube(0, "a", 7, 1), cube(1, "b", 5, 2), cube(2, "c", 9, 3), cube(3, "d", 5, 1)}
	req := Request{Bin: testBin(20, 15, 12), Items: items, BiggerFirst: true}

	first, err := NewPivotSolver().Solve(context.Background(), req)
	require.NoError(t, err)
	second, err := NewPivotSolver().Solve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSolve_RoundsToDecimals(t *testing.T) {
	resp, err := NewPivotSolver().Solve(context.Background(), Request{
		Bin:   testBin(10, 10, 10),
		Items: []Item{{Name: "a", Width: 10.001, Height: 10, Depth: 10, Weight: 1}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Placed, 1)
	assert.Equal(t, 10.0, resp.Placed[0].Dimension.X)
}

func TestSolve_InvalidInput(t *testing.T) {
	_, err := NewPivotSolver().Solve(context.Background(), Request{Bin: testBin(0, 10, 10)})
	assert.ErrorIs(t, err, ErrInvalidBin)

	_, err = NewPivotSolver().Solve(context.Background(), Request{
		Bin:   testBin(10, 10, 10),
		Items: []Item{{Name: "flat", Width: 1, Height: 0, Depth: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestSolve_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPivotSolver().Solve(ctx, Request{Bin: testBin(10, 10, 10), Items: []Item{cube(0, "a", 1, 1)}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestItemDimension_AllRotations(t *testing.T) {
	it := Item{Width: 1, Height: 2, Depth: 3}
	want := map[RotationType]geometry.Vec3{
		RotationWHD: {X: 1, Y: 2, Z: 3},
		RotationHWD: {X: 2, Y: 1, Z: 3},
		RotationHDW: {X: 2, Y: 3, Z: 1},
		RotationDHW: {X: 3, Y: 2, Z: 1},
		RotationDWH: {X: 3, Y: 1, Z: 2},
		RotationWDH: {X: 1, Y: 3, Z: 2},
	}
	for r, dim := range want {
		assert.Equal(t, dim, it.Dimension(r), r.String())
		assert.InDelta(t, 6.0, it.Dimension(r).Volume(), 1e-9)
	}
}

func names(placed []Placement) []string {
	out := make([]string, 0, len(placed))
	for _, p := range placed {
		out = append(out, p.Item.Name)
	}
	return out
}
