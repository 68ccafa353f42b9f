// Package geometry provides basic geometric types used throughout the application.
package geometry

import "image"

// RectInt represents a rectangle with integer coordinates, stored as an
// origin plus size. Crop boxes in collage datasets are recorded this way.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// Empty returns true if the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ToImageRect converts to the stdlib image.Rectangle representation.
func (r RectInt) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Within returns true if the rectangle lies entirely inside an image of the
// given dimensions.
func (r RectInt) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= width && r.Y+r.Height <= height
}

// Size represents integer image dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
