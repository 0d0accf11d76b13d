// Package importer reads item lists from CSV, Excel and YAML files. CSV
// input has its delimiter detected and its columns mapped from
// case-insensitive header aliases; a missing header falls back to the
// positional layout name, width, height, depth, weight, can stack, fragile.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

// Format names an importable file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for an unknown format name.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// ParseFormat resolves a format name or file extension.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "csv", "txt":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Result holds the items read from a file along with per-row problems.
// Rows listed in Errors were skipped.
type Result struct {
	Items    []packing.ItemSpec `json:"items"`
	Errors   []string           `json:"errors,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Import reads items from r in the given format.
func Import(format Format, r io.Reader) (Result, error) {
	switch format {
	case FormatCSV:
		return ImportCSV(r), nil
	case FormatXLSX:
		return ImportXLSX(r), nil
	case FormatYAML:
		return ImportYAML(r), nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ColumnMapping maps item fields to their column indices. -1 means absent.
type ColumnMapping struct {
	Name     int
	Width    int
	Height   int
	Depth    int
	Weight   int
	CanStack int
	Fragile  int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":     {"name", "item", "item name", "label", "description", "product"},
	"width":    {"width", "w"},
	"height":   {"height", "h"},
	"depth":    {"depth", "d", "length", "l"},
	"weight":   {"weight", "kg", "weight (kg)", "mass"},
	"canstack": {"can stack", "can_stack", "canstack", "stackable", "stack"},
	"fragile":  {"fragile", "is fragile", "is_fragile"},
}

var positionalMapping = ColumnMapping{Name: 0, Width: 1, Height: 2, Depth: 3, Weight: 4, CanStack: 5, Fragile: 6}

// DetectCSVDelimiter determines the most likely delimiter among comma,
// semicolon, tab and pipe: the one giving the most rows with the same
// column count as the first, preferring more columns.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 {
			continue
		}
		cols := len(records[0])
		if cols < 2 {
			continue
		}

		consistent := 0
		for _, row := range records {
			if len(row) == cols {
				consistent++
			}
		}
		if score := consistent*10 + cols; score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

// DetectColumns maps a header row to item fields. It returns the positional
// mapping and false when the row holds no known header.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Name: -1, Width: -1, Height: -1, Depth: -1, Weight: -1, CanStack: -1, Fragile: -1}
	fields := map[string]*int{
		"name":     &mapping.Name,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"depth":    &mapping.Depth,
		"weight":   &mapping.Weight,
		"canstack": &mapping.CanStack,
		"fragile":  &mapping.Fragile,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias && *fields[role] == -1 {
					*fields[role] = i
					isHeader = true
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping, false
	}
	return mapping, true
}

// ImportCSV reads items from CSV data with any supported delimiter.
func ImportCSV(r io.Reader) Result {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Cannot read file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{Errors: []string{"File is empty"}}
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		name := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", name))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return fromRows(records, "Line", warnings)
}

// ImportXLSX reads items from the first sheet of an Excel workbook.
func ImportXLSX(r io.Reader) Result {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{Errors: []string{"Excel file has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Cannot read Excel data: %v", err)}}
	}
	return fromRows(rows, "Row", nil)
}

func fromRows(rows [][]string, rowPrefix string, warnings []string) Result {
	result := Result{Warnings: warnings}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	start := 0
	if hasHeader {
		start = 1
		var missing []string
		for name, idx := range map[string]int{
			"Width": mapping.Width, "Height": mapping.Height, "Depth": mapping.Depth, "Weight": mapping.Weight,
		} {
			if idx == -1 {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			result.Errors = append(result.Errors,
				fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) > 1 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			start = 1
			result.Warnings = append(result.Warnings, "Unrecognized header row, using column order")
		}
	}

	seen := make(map[string]struct{})
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		item, errMsg, warnings := parseRow(row, mapping, rowLabel, len(result.Items))
		result.Warnings = append(result.Warnings, warnings...)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if _, dup := seen[item.Name]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate item name '%s'", rowLabel, item.Name))
			continue
		}
		seen[item.Name] = struct{}{}
		result.Items = append(result.Items, item)
	}

	if len(result.Items) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

func parseRow(row []string, m ColumnMapping, rowLabel string, count int) (packing.ItemSpec, string, []string) {
	item := packing.ItemSpec{Name: cell(row, m.Name)}
	if item.Name == "" {
		item.Name = fmt.Sprintf("Item %d", count+1)
	}

	for _, field := range []struct {
		label string
		idx   int
		dst   *float64
	}{
		{"width", m.Width, &item.Width},
		{"height", m.Height, &item.Height},
		{"depth", m.Depth, &item.Depth},
		{"weight", m.Weight, &item.Weight},
	} {
		raw := cell(row, field.idx)
		if raw == "" {
			return packing.ItemSpec{}, fmt.Sprintf("%s: Missing %s value", rowLabel, field.label), nil
		}
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return packing.ItemSpec{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, field.label, raw), nil
		}
		*field.dst = v
	}

	if err := packing.ValidateItem(item); err != nil {
		return packing.ItemSpec{}, fmt.Sprintf("%s: Dimensions and weight must be positive", rowLabel), nil
	}

	var warnings []string
	for _, flag := range []struct {
		label string
		idx   int
		dst   *bool
	}{
		{"can stack", m.CanStack, &item.CanStack},
		{"fragile", m.Fragile, &item.Fragile},
	} {
		raw := cell(row, flag.idx)
		v, ok := parseBool(raw)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown %s value '%s', defaulting to no", rowLabel, flag.label, raw))
		}
		*flag.dst = v
	}
	return item, "", warnings
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "1", "x":
		return true, true
	case "", "no", "n", "false", "f", "0", "-":
		return false, true
	default:
		return false, false
	}
}

// cell returns the trimmed value at idx or "" when out of range.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
