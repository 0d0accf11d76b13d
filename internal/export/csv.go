package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

// WriteCSV writes one row per placed item with its placed extent, true
// weight, position and rotation index.
func WriteCSV(w io.Writer, r packing.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(placementHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, it := range r.Items {
		row := []string{
			it.Name,
			formatNumber(it.Dimension.X),
			formatNumber(it.Dimension.Y),
			formatNumber(it.Dimension.Z),
			formatNumber(it.Weight),
			formatNumber(it.Position.X),
			formatNumber(it.Position.Y),
			formatNumber(it.Position.Z),
			strconv.Itoa(int(it.Rotation)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %q: %w", it.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
