package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "export.csv",
		"LabelTrue,AbdArea,Circularity\n"+
			"diatom,10.5,0.9\n"+
			"copepod,20.25,0.4\n")

	table, err := LoadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if got := table.Rows[0].Value(ColLabelTrue); got != "diatom" {
		t.Errorf("row 0 label = %q", got)
	}
	if table.Rows[1].Line != 3 {
		t.Errorf("row 1 line = %d, want 3", table.Rows[1].Line)
	}
	area, err := table.Rows[1].Float("AbdArea")
	if err != nil {
		t.Fatal(err)
	}
	if area != 20.25 {
		t.Errorf("AbdArea = %v", area)
	}
}

func TestConcat_UnionColumns(t *testing.T) {
	a := &Table{
		Columns: []string{"LabelTrue", "AbdArea"},
		Rows:    []Row{{Values: map[string]string{"LabelTrue": "a", "AbdArea": "1"}}},
	}
	b := &Table{
		Columns: []string{"LabelTrue", "Circularity"},
		Rows:    []Row{{Values: map[string]string{"LabelTrue": "b", "Circularity": "0.5"}}},
	}
	merged := Concat([]*Table{a, b})
	if len(merged.Rows) != 2 {
		t.Fatalf("rows = %d", len(merged.Rows))
	}
	want := []string{"LabelTrue", "AbdArea", "Circularity"}
	if len(merged.Columns) != len(want) {
		t.Fatalf("columns = %v", merged.Columns)
	}
	for i, col := range want {
		if merged.Columns[i] != col {
			t.Errorf("columns[%d] = %q, want %q", i, merged.Columns[i], col)
		}
	}
	// Cell absent from the source file reads as null.
	if !merged.Rows[0].IsNull("Circularity") {
		t.Error("expected null Circularity in first row")
	}
}

func makeRows(n int, f func(i int) map[string]string) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{Source: "test.csv", Line: i + 2, Values: f(i)}
	}
	return rows
}

func TestNormalize_DropsEmptyLabelRows(t *testing.T) {
	table := &Table{
		Columns: []string{ColLabelTrue, "AbdArea"},
		Rows: makeRows(4, func(i int) map[string]string {
			label := "diatom"
			if i%2 == 1 {
				label = ""
			}
			return map[string]string{ColLabelTrue: label, "AbdArea": strconv.Itoa(i)}
		}),
	}
	out, err := Normalize(table)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(out.Rows))
	}
}

func TestNormalize_DropsDegenerateColumns(t *testing.T) {
	table := &Table{
		Columns: []string{ColLabelTrue, "AllNull", "Constant", "Text", "AbdArea"},
		Rows: makeRows(3, func(i int) map[string]string {
			return map[string]string{
				ColLabelTrue: "diatom" + strconv.Itoa(i%2),
				"AllNull":    "",
				"Constant":   "42",
				"Text":       []string{"x", "y", "z"}[i],
				"AbdArea":    strconv.Itoa(i),
			}
		}),
	}
	out, err := Normalize(table)
	if err != nil {
		t.Fatal(err)
	}
	for _, dropped := range []string{"AllNull", "Constant", "Text"} {
		if out.HasColumn(dropped) {
			t.Errorf("column %s should have been dropped", dropped)
		}
	}
	for _, kept := range []string{ColLabelTrue, "AbdArea"} {
		if !out.HasColumn(kept) {
			t.Errorf("column %s should have been kept", kept)
		}
	}
}

// Every retained feature column must have at least two distinct non-null
// values and must not be entirely null.
func TestNormalize_RetainedColumnsProperty(t *testing.T) {
	table := &Table{
		Columns: []string{ColLabelTrue, "A", "B", "C", "D"},
		Rows: makeRows(6, func(i int) map[string]string {
			v := map[string]string{
				ColLabelTrue: "l" + strconv.Itoa(i%3),
				"A":          strconv.Itoa(i),
				"B":          "7", // constant
				"C":          "",  // all null
			}
			if i < 3 {
				v["D"] = strconv.Itoa(i * 10) // partially null, varied
			} else {
				v["D"] = ""
			}
			return v
		}),
	}
	out, err := Normalize(table)
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range out.Columns {
		if protectedColumns[col] {
			continue
		}
		distinct := make(map[string]struct{})
		for _, row := range out.Rows {
			if !row.IsNull(col) {
				distinct[row.Values[col]] = struct{}{}
			}
		}
		if len(distinct) < 2 {
			t.Errorf("retained column %s has %d distinct non-null values", col, len(distinct))
		}
	}
}

func TestNormalize_KeepsConstantProtectedColumns(t *testing.T) {
	// A single-collage table has a constant CollageFile; it must survive.
	table := &Table{
		Columns: []string{ColLabelTrue, ColCollageFile, ColImageX, ColImageY, ColImageW, ColImageH, "AbdArea"},
		Rows: makeRows(4, func(i int) map[string]string {
			return map[string]string{
				ColLabelTrue:   "l" + strconv.Itoa(i%2),
				ColCollageFile: "collage_001.tif",
				ColImageX:      strconv.Itoa(i * 5),
				ColImageY:      strconv.Itoa(i * 7),
				ColImageW:      "32", // constant crop width is valid
				ColImageH:      "24",
				"AbdArea":      strconv.Itoa(i),
			}
		}),
	}
	out, err := Normalize(table)
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range []string{ColCollageFile, ColImageX, ColImageY, ColImageW, ColImageH} {
		if !out.HasColumn(col) {
			t.Errorf("protected column %s was dropped", col)
		}
	}
}

func TestNormalize_MissingLabelColumn(t *testing.T) {
	table := &Table{
		Columns: []string{"AbdArea"},
		Rows: makeRows(2, func(i int) map[string]string {
			return map[string]string{"AbdArea": strconv.Itoa(i)}
		}),
	}
	if _, err := Normalize(table); !errors.Is(err, ErrSchema) {
		t.Errorf("expected ErrSchema, got %v", err)
	}
}

func TestFilterMinExamples(t *testing.T) {
	table := &Table{
		Columns: []string{ColLabelTrue},
		Rows: makeRows(7, func(i int) map[string]string {
			// 4x diatom, 2x copepod, 1x ciliate
			labels := []string{"diatom", "diatom", "diatom", "diatom", "copepod", "copepod", "ciliate"}
			return map[string]string{ColLabelTrue: labels[i]}
		}),
	}

	out := FilterMinExamples(table, 2)
	counts := out.LabelCounts()
	if counts["ciliate"] != 0 {
		t.Error("ciliate group should have been dropped")
	}
	for label, n := range counts {
		if n < 2 {
			t.Errorf("label %s has %d rows after filtering with min=2", label, n)
		}
	}

	if got := len(FilterMinExamples(table, 5).Rows); got != 0 {
		t.Errorf("min=5 should drop everything, got %d rows", got)
	}
	if got := len(FilterMinExamples(table, 1).Rows); got != 7 {
		t.Errorf("min=1 should keep everything, got %d rows", got)
	}
}
