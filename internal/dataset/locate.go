package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"plankton-eval/pkg/geometry"
)

// ImageRef is a row's fully resolved image reference. Crop is only
// meaningful for rows that came from a collage-style source file.
type ImageRef struct {
	Path    string
	Cropped bool
	Crop    geometry.RectInt
}

// DetectStyle decides how a group of rows references images. A source file
// is homogeneously one style or the other; the decision is made once per
// file, never per row. Standalone style needs both the filename and the
// container-name column to carry values; otherwise a non-null collage
// column selects collage style. A file populating both column sets routes
// as standalone.
func DetectStyle(t *Table) (ImageStyle, error) {
	return detectStyle(t, t.Rows)
}

func detectStyle(t *Table, rows []Row) (ImageStyle, error) {
	if t.HasColumn(ColImageFilename) && !allNull(rows, ColImageFilename) &&
		t.HasColumn(ColName) && !allNull(rows, ColName) {
		return StyleStandalone, nil
	}
	if t.HasColumn(ColCollageFile) && !allNull(rows, ColCollageFile) {
		return StyleCollage, nil
	}
	src := "table"
	if len(rows) > 0 {
		src = rows[0].Source
	}
	return StyleUnknown, fmt.Errorf("%w: %s: no usable image reference columns (%s+%s or %s)",
		ErrSchema, src, ColImageFilename, ColName, ColCollageFile)
}

func allNull(rows []Row, col string) bool {
	for _, row := range rows {
		if !row.IsNull(col) {
			return false
		}
	}
	return true
}

// ResolveImages resolves every row's image reference to an absolute path
// under dir, verifies the file exists, and records the reference on the
// table so later stages never re-derive it. Rows are grouped by source
// file and the style decision is made per group; a dataset may mix
// collage-style and standalone-style files. Fails on the first missing
// image; dataset completeness is a precondition, not something to
// partially recover from.
func ResolveImages(t *Table, dir string) error {
	t.Refs = make([]ImageRef, len(t.Rows))
	t.Style = StyleUnknown

	for start := 0; start < len(t.Rows); {
		end := start
		for end < len(t.Rows) && t.Rows[end].Source == t.Rows[start].Source {
			end++
		}
		group := t.Rows[start:end]

		style, err := detectStyle(t, group)
		if err != nil {
			return err
		}
		if t.Style == StyleUnknown {
			t.Style = style
		} else if t.Style != style {
			t.Style = StyleMixed
		}

		for i := start; i < end; i++ {
			ref, err := resolveRow(&t.Rows[i], style, dir)
			if err != nil {
				return err
			}
			t.Refs[i] = ref
		}
		start = end
	}
	return nil
}

func resolveRow(row *Row, style ImageStyle, dir string) (ImageRef, error) {
	var relative, pathColumn string
	switch style {
	case StyleStandalone:
		relative = filepath.Join(row.Value(ColName), row.Value(ColImageFilename))
		pathColumn = ColImageFilename
	case StyleCollage:
		relative = row.Value(ColCollageFile)
		pathColumn = ColCollageFile
	}

	abs, err := filepath.Abs(filepath.Join(dir, relative))
	if err != nil {
		return ImageRef{}, fmt.Errorf("row %s:%d: resolve %s: %w", row.Source, row.Line, relative, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return ImageRef{}, fmt.Errorf("%w: row %s:%d: %s", ErrMissingImage, row.Source, row.Line, abs)
	}
	row.Values[pathColumn] = abs

	ref := ImageRef{Path: abs}
	if style == StyleCollage {
		box, err := row.CropBox()
		if err != nil {
			return ImageRef{}, err
		}
		ref.Cropped = true
		ref.Crop = box
	}
	return ref, nil
}

// ImageRef returns the resolved image reference for a row. ResolveImages
// must have run on the table first.
func (t *Table) ImageRef(i int) (ImageRef, error) {
	if t.Refs == nil {
		return ImageRef{}, fmt.Errorf("%w: table images not resolved", ErrSchema)
	}
	return t.Refs[i], nil
}
