package dataset

// Column names fixed by the instrument export schema. Feature columns vary
// per export; these identifiers and crop-box columns are the ones the
// pipeline itself depends on.
const (
	// ColLabelTrue holds the ground-truth label assigned by an annotator.
	ColLabelTrue = "LabelTrue"

	// ColName is the sample (container) name; standalone image files live
	// in a directory with this name.
	ColName = "Name"

	// ColImageFilename references a standalone per-object image file.
	ColImageFilename = "ImageFilename"

	// ColCollageFile references a shared collage image holding many
	// objects at recorded crop boxes.
	ColCollageFile = "CollageFile"

	// Crop-box columns, collage style only.
	ColImageX = "ImageX"
	ColImageY = "ImageY"
	ColImageW = "ImageW"
	ColImageH = "ImageH"
)

// protectedColumns are exempt from column-dropping during normalization:
// they carry identity or geometry the locator and preprocessor require, and
// several of them are legitimately constant (a single-collage table has one
// CollageFile value) or textual.
var protectedColumns = map[string]bool{
	ColLabelTrue:     true,
	ColName:          true,
	ColImageFilename: true,
	ColCollageFile:   true,
	ColImageX:        true,
	ColImageY:        true,
	ColImageW:        true,
	ColImageH:        true,
}

// cropColumns in the order (x, y, width, height).
var cropColumns = [4]string{ColImageX, ColImageY, ColImageW, ColImageH}
