package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDecode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	writeTestPNG(t, path, 20, 10)

	img, err := Decode(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("decoded size = %dx%d, want 20x10", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecode_MissingFile(t *testing.T) {
	if _, err := Decode(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecode_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestToRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 6))
	rgba := ToRGBA(gray)
	if rgba.Bounds().Dx() != 4 || rgba.Bounds().Dy() != 6 {
		t.Errorf("converted size = %v", rgba.Bounds())
	}

	// Already-RGBA images pass through untouched.
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if ToRGBA(src) != src {
		t.Error("expected identity conversion for *image.RGBA")
	}
}

func TestIsSupportedFormat(t *testing.T) {
	cases := map[string]bool{
		"collage_01.tif": true,
		"sample.PNG":     true,
		"photo.jpeg":     true,
		"notes.txt":      false,
		"archive.zip":    false,
	}
	for path, want := range cases {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}
