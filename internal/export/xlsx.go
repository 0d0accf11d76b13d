package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

const (
	placementSheet = "Packing"
	summarySheet   = "Summary"
)

// WriteXLSX writes a workbook with the placement table on the first sheet
// and the container, score and stability summary on the second.
func WriteXLSX(w io.Writer, r packing.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", placementSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, 0, len(placementHeader)+1)
	for _, h := range placementHeader {
		header = append(header, h)
	}
	header = append(header, "Unstable")
	if err := f.SetSheetRow(placementSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, it := range r.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			it.Name,
			it.Dimension.X, it.Dimension.Y, it.Dimension.Z,
			it.Weight,
			it.Position.X, it.Position.Y, it.Position.Z,
			int(it.Rotation),
			it.Unstable,
		}
		if err := f.SetSheetRow(placementSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %q: %w", it.Name, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	summary := [][]any{
		{"Container", r.Container.Name},
		{"Width", r.Container.Width},
		{"Height", r.Container.Height},
		{"Depth", r.Container.Depth},
		{"Strategy", string(r.Strategy)},
		{"Ordering", r.Ordering},
		{"Efficiency", r.Efficiency},
		{"Packed", len(r.Items)},
		{"Submitted", submitted(r)},
		{"Unfitted", strings.Join(r.Unfitted, ", ")},
		{"Unstable", strings.Join(r.UnstableItems(), ", ")},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
