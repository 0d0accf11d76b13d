package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth   = 210.0
	marginLeft  = 15.0
	marginRight = 15.0
	marginTop   = 15.0
	qrSize      = 35.0
	lineHeight  = 6.0
	rowHeight   = 5.5
)

var tableColumns = []struct {
	title string
	width float64
}{
	{"Item", 44},
	{"W", 14},
	{"H", 14},
	{"D", 14},
	{"Weight", 18},
	{"X", 14},
	{"Y", 14},
	{"Z", 14},
	{"Rot", 12},
	{"Stable", 16},
}

// qrSummary is the payload encoded in the report's QR code.
type qrSummary struct {
	Container  string   `json:"container"`
	Dimensions string   `json:"dimensions"`
	Efficiency string   `json:"efficiency"`
	Packed     int      `json:"packed"`
	Submitted  int      `json:"submitted"`
	Unstable   []string `json:"unstable,omitempty"`
}

// WritePDF renders a single-page report: container and score summary, a QR
// code carrying the same summary, the placement table, stability warnings
// and recommendations.
func WritePDF(w io.Writer, r packing.Result) error {
	analytics := packing.Analyze(r, submitted(r))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginTop)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	contentWidth := pageWidth - marginLeft - marginRight

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth-qrSize, 10, tr("Packing report: "+r.Container.Name), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Box: %s x %s x %s cm, max %s kg",
			formatNumber(r.Container.Width), formatNumber(r.Container.Height),
			formatNumber(r.Container.Depth), formatNumber(r.Container.MaxWeight)),
		fmt.Sprintf("Strategy: %s (%s)", r.Strategy, r.Ordering),
		fmt.Sprintf("Space utilization: %.1f%%", r.Efficiency),
		fmt.Sprintf("Items packed: %d of %d", analytics.Packed, analytics.Submitted),
		fmt.Sprintf("Weight: %.1f kg bottom half, %.1f kg top half", analytics.BottomHalfWeight, analytics.TopHalfWeight),
	} {
		pdf.CellFormat(contentWidth-qrSize, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}

	if err := drawQR(pdf, r, analytics); err != nil {
		return err
	}

	pdf.Ln(lineHeight)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range tableColumns {
		pdf.CellFormat(col.width, rowHeight+1, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, it := range r.Items {
		stable := "yes"
		if it.Unstable {
			stable = "NO"
			pdf.SetTextColor(200, 30, 30)
		}
		cells := []string{
			it.Name,
			formatNumber(it.Dimension.X), formatNumber(it.Dimension.Y), formatNumber(it.Dimension.Z),
			formatNumber(it.Weight),
			formatNumber(it.Position.X), formatNumber(it.Position.Y), formatNumber(it.Position.Z),
			it.Rotation.String(),
			stable,
		}
		for i, col := range tableColumns {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(col.width, rowHeight, tr(cells[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		pdf.Ln(lineHeight / 2)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentWidth, lineHeight+1, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, line := range lines {
			pdf.MultiCell(contentWidth, lineHeight-1, tr("- "+line), "", "L", false)
		}
	}

	if len(r.Unfitted) > 0 {
		section("Items that did not fit", []string{strings.Join(r.Unfitted, ", ")})
	}
	warnings := make([]string, 0, len(analytics.Warnings))
	for _, warn := range analytics.Warnings {
		warnings = append(warnings, warn.Message)
	}
	section("Stability warnings", warnings)
	section("Recommendations", analytics.Recommendations)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func drawQR(pdf *fpdf.Fpdf, r packing.Result, a packing.Analytics) error {
	payload, err := json.Marshal(qrSummary{
		Container: r.Container.Name,
		Dimensions: fmt.Sprintf("%sx%sx%s",
			formatNumber(r.Container.Width), formatNumber(r.Container.Height), formatNumber(r.Container.Depth)),
		Efficiency: fmt.Sprintf("%.1f%%", r.Efficiency),
		Packed:     a.Packed,
		Submitted:  a.Submitted,
		Unstable:   r.UnstableItems(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal report summary: %w", err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	const imgName = "summary_qr"
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(png))
	pdf.ImageOptions(imgName, pageWidth-marginRight-qrSize, marginTop, qrSize, qrSize, false, opts, 0, "")
	return nil
}
