package export

import (
	"fmt"
	"io"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/eugenenazirov/box-packer/internal/geometry"
	"github.com/eugenenazirov/box-packer/internal/packing"
)

// DXF layer names.
const (
	LayerContainer = "CONTAINER"
	LayerItems     = "ITEMS"
	LayerUnstable  = "UNSTABLE"
)

// WriteDXF writes a 3D wireframe of the container and every placed item.
// Unstable items are drawn on their own red layer.
func WriteDXF(w io.Writer, r packing.Result) error {
	d := dxf.NewDrawing()
	for _, layer := range []struct {
		name  string
		color color.ColorNumber
	}{
		{LayerContainer, color.Blue},
		{LayerItems, dxf.DefaultColor},
		{LayerUnstable, color.Red},
	} {
		if _, err := d.AddLayer(layer.name, layer.color, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("add layer %s: %w", layer.name, err)
		}
	}

	if err := drawBox(d, LayerContainer, geometry.Box{Size: r.Container.Extent()}); err != nil {
		return err
	}
	for _, it := range r.Items {
		layer := LayerItems
		if it.Unstable {
			layer = LayerUnstable
		}
		if err := drawBox(d, layer, it.Box()); err != nil {
			return fmt.Errorf("draw %q: %w", it.Name, err)
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write dxf: %w", err)
	}
	return nil
}

// drawBox draws the twelve edges of b on the given layer.
func drawBox(d *drawing.Drawing, layer string, b geometry.Box) error {
	if err := d.ChangeLayer(layer); err != nil {
		return err
	}

	lo, hi := b.Origin, b.Max()
	corners := [8]geometry.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		from, to := corners[e[0]], corners[e[1]]
		if _, err := d.Line(from.X, from.Y, from.Z, to.X, to.Y, to.Z); err != nil {
			return err
		}
	}
	return nil
}
