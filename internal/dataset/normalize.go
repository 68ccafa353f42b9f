package dataset

import (
	"fmt"
	"strconv"
)

// Normalize applies the schema-cleanup pipeline to a concatenated table:
//
//  1. drop rows with a null or empty true label,
//  2. drop columns that are null across every remaining row,
//  3. drop columns whose non-null values are all identical,
//  4. drop non-numeric columns.
//
// Identifier and crop-box columns are exempt from steps 3 and 4 (and their
// presence is what steps like image resolution rely on). Returns ErrSchema
// when the true-label column does not survive.
func Normalize(t *Table) (*Table, error) {
	out := &Table{Style: t.Style}

	for _, row := range t.Rows {
		if row.IsNull(ColLabelTrue) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	if len(out.Rows) == 0 {
		// No labeled rows means no evidence to drop columns on; leave the
		// schema intact and let the pipeline's empty-set check report it.
		out.Columns = append([]string(nil), t.Columns...)
	} else {
		for _, col := range t.Columns {
			if dropColumn(out.Rows, col) {
				continue
			}
			out.Columns = append(out.Columns, col)
		}
	}

	if !out.HasColumn(ColLabelTrue) {
		return nil, fmt.Errorf("%w: column %s absent after normalization", ErrSchema, ColLabelTrue)
	}
	return out, nil
}

// dropColumn decides whether a column is removed during normalization.
func dropColumn(rows []Row, col string) bool {
	allNull := true
	constant := true
	numeric := true
	var first string
	var seenFirst bool

	for _, row := range rows {
		raw := row.Values[col]
		if isNull(raw) {
			continue
		}
		allNull = false
		if !seenFirst {
			first = raw
			seenFirst = true
		} else if raw != first {
			constant = false
		}
		if numeric {
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				numeric = false
			}
		}
	}

	if allNull {
		return true
	}
	if protectedColumns[col] {
		return false
	}
	return constant || !numeric
}

// FilterMinExamples drops every label group with fewer than min rows. It
// operates on an already-normalized table and is independent of row order.
func FilterMinExamples(t *Table, min int) *Table {
	if min <= 1 {
		return t
	}
	counts := t.LabelCounts()
	out := &Table{Columns: t.Columns, Style: t.Style}
	for _, row := range t.Rows {
		if counts[row.Value(ColLabelTrue)] >= min {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
