// Package export renders packing results as downloadable files: a CSV
// placement table, an XLSX workbook, a PDF report and a DXF wireframe.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

// Format names an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatDXF  Format = "dxf"
)

// ErrUnsupportedFormat is returned for an unknown format name.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ErrNothingToExport is returned when the result holds no placed items.
var ErrNothingToExport = errors.New("no packed items to export")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatPDF, FormatDXF}
}

// ParseFormat resolves a format name case-insensitively. A leading dot is
// accepted so file extensions can be passed directly.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "."))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatDXF:
		return "application/dxf"
	default:
		return "application/octet-stream"
	}
}

// Filename returns the suggested download name.
func (f Format) Filename() string {
	return "packing_data." + string(f)
}

// Write renders r in the given format.
func Write(w io.Writer, f Format, r packing.Result) error {
	if !r.Feasible() {
		return ErrNothingToExport
	}

	switch f {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	case FormatDXF:
		return WriteDXF(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// placementHeader is shared by the CSV and XLSX placement tables.
var placementHeader = []string{
	"Item", "Width", "Height", "Depth", "Weight",
	"Position_X", "Position_Y", "Position_Z", "Rotation",
}

func submitted(r packing.Result) int {
	return len(r.Items) + len(r.Unfitted)
}
