package model

// Point is a polygon vertex normalized to the frame size, both coordinates in [0,1].
type Point struct {
	X float64
	Y float64
}

// Mask is a binary raster, one byte per pixel; non-zero marks foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Set marks the pixel at (x, y) as foreground. Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = 255
}

// FillRect marks the half-open rectangle [x0,x1)×[y0,y1), clipped to the mask.
func (m *Mask) FillRect(x0, y0, x1, y1 int) {
	for y := max(y0, 0); y < min(y1, m.Height); y++ {
		for x := max(x0, 0); x < min(x1, m.Width); x++ {
			m.Pix[y*m.Width+x] = 255
		}
	}
}

// Area returns the number of foreground pixels.
func (m *Mask) Area() int {
	n := 0
	for _, p := range m.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// Detection is one segmented object reported by an inference engine.
// Engines fill either Mask or Polygon.
type Detection struct {
	ClassID int
	Score   float64
	Mask    *Mask
	Polygon []Point
}

// InferenceResult holds every detection for exactly one frame.
type InferenceResult struct {
	Detections []Detection
}

// Empty reports whether the engine found nothing.
func (r *InferenceResult) Empty() bool {
	return r == nil || len(r.Detections) == 0
}
