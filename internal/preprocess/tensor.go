package preprocess

// Tensor is a fixed-shape float32 image in HWC layout with values scaled
// to [0,1].
type Tensor struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// NewTensor allocates a zero tensor of the given shape.
func NewTensor(height, width, channels int) Tensor {
	return Tensor{
		Height:   height,
		Width:    width,
		Channels: channels,
		Data:     make([]float32, height*width*channels),
	}
}

// At returns the value at (y, x, c).
func (t Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width+x)*t.Channels+c]
}

// Len returns the number of elements.
func (t Tensor) Len() int {
	return len(t.Data)
}
