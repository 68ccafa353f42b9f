// Package imaging provides image decoding and conversion helpers shared by
// the preprocessing pipeline and the dataset tools.
package imaging

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"gocv.io/x/gocv"
)

// Decode reads and decodes an image file. TIFF and BMP support comes from
// golang.org/x/image; collage files written by flow-imaging instruments are
// typically TIFFs.
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// ToRGBA converts any image to RGBA, returning the original when it already
// is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// MatFromImage converts a decoded image into a 3-channel BGR gocv Mat.
// The alpha channel, if any, is discarded in the color conversion.
// The caller owns the returned Mat and must Close it.
func MatFromImage(img image.Image) (gocv.Mat, error) {
	rgba := ToRGBA(img)
	bounds := rgba.Bounds()

	raw, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat: %w", err)
	}
	defer raw.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(raw, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
