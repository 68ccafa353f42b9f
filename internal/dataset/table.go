// Package dataset loads delimited export files into a normalized record
// table and resolves each row's image reference.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"plankton-eval/pkg/geometry"
)

// ImageStyle says how a table's rows reference their object images. The
// style is decided once per table during image resolution, never per row.
type ImageStyle int

const (
	StyleUnknown    ImageStyle = iota
	StyleStandalone            // one image file per object
	StyleCollage               // objects cropped out of shared collage files
	StyleMixed                 // dataset combines files of both styles
)

func (s ImageStyle) String() string {
	switch s {
	case StyleStandalone:
		return "standalone"
	case StyleCollage:
		return "collage"
	case StyleMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Row is one exported object. Cell values stay as raw strings until a stage
// needs them typed; Source and Line identify the row for error messages.
type Row struct {
	Source string
	Line   int
	Values map[string]string
}

// Value returns the raw cell value, "" when the column is absent.
func (r Row) Value(col string) string {
	return r.Values[col]
}

// IsNull reports whether the cell is missing or a recognized null marker.
func (r Row) IsNull(col string) bool {
	return isNull(r.Values[col])
}

// Float parses the cell as a floating-point number.
func (r Row) Float(col string) (float64, error) {
	raw := r.Values[col]
	if isNull(raw) {
		return 0, fmt.Errorf("row %s:%d: column %s is null", r.Source, r.Line, col)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("row %s:%d: column %s: %w", r.Source, r.Line, col, err)
	}
	return v, nil
}

// CropBox reads the collage crop box (x, y, width, height). Fractional
// coordinates are truncated.
func (r Row) CropBox() (geometry.RectInt, error) {
	var vals [4]int
	for i, col := range cropColumns {
		f, err := r.Float(col)
		if err != nil {
			return geometry.RectInt{}, fmt.Errorf("crop box: %w", err)
		}
		vals[i] = int(f)
	}
	return geometry.NewRectInt(vals[0], vals[1], vals[2], vals[3]), nil
}

// Table is an ordered collection of rows sharing one column set.
type Table struct {
	Columns []string
	Rows    []Row

	// Style and Refs are set by ResolveImages; Style is the dataset-wide
	// style, StyleMixed when source files disagree.
	Style ImageStyle
	Refs  []ImageRef
}

// HasColumn reports whether the column survived into the table.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// ColumnAllNull reports whether every row is null in the column.
func (t *Table) ColumnAllNull(col string) bool {
	for _, row := range t.Rows {
		if !row.IsNull(col) {
			return false
		}
	}
	return true
}

// Labels returns the true-label value of every row, in row order.
func (t *Table) Labels() []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Value(ColLabelTrue)
	}
	return out
}

// LabelCounts returns the number of rows per true label.
func (t *Table) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for _, row := range t.Rows {
		counts[row.Value(ColLabelTrue)]++
	}
	return counts
}

// LoadCSV reads one delimited export file. The first record is the header;
// every row must have the same field count.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file, no header", path)
	}

	header := records[0]
	table := &Table{Columns: append([]string(nil), header...)}

	for i, record := range records[1:] {
		values := make(map[string]string, len(header))
		for j, col := range header {
			values[col] = record[j]
		}
		table.Rows = append(table.Rows, Row{
			Source: path,
			Line:   i + 2, // 1-based, after the header
			Values: values,
		})
	}
	return table, nil
}

// Concat merges tables into one, preserving source order. The column set is
// the union in first-seen order; cells absent from a source file read as null.
func Concat(tables []*Table) *Table {
	merged := &Table{}
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, col := range t.Columns {
			if !seen[col] {
				seen[col] = true
				merged.Columns = append(merged.Columns, col)
			}
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}
	return merged
}

// Load reads and concatenates all the given CSV files.
func Load(paths []string) (*Table, error) {
	tables := make([]*Table, 0, len(paths))
	for _, path := range paths {
		t, err := LoadCSV(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return Concat(tables), nil
}

// isNull recognizes the null markers instrument exports use.
func isNull(s string) bool {
	return s == "" || s == "NA" || s == "NaN" || s == "null"
}
