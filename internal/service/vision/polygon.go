package vision

import (
	"github.com/medYousseffathallah/Datacollector/internal/model"

	"gocv.io/x/gocv"
)

const (
	// minContourArea skips specks left by thresholding.
	minContourArea = 10.0
	// approxEpsilonRatio scales approxPolyDP's epsilon by the contour perimeter.
	approxEpsilonRatio = 0.001
)

// ContourPolygonizer traces the largest external contour of a mask.
type ContourPolygonizer struct{}

// Polygonize returns the simplified outline normalized to the mask size,
// or nil when no contour reaches minContourArea.
func (ContourPolygonizer) Polygonize(mask *model.Mask) []model.Point {
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return nil
	}

	mat, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, mask.Pix)
	if err != nil {
		return nil
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best, bestArea := -1, minContourArea
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area >= bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return nil
	}

	contour := contours.At(best)
	epsilon := approxEpsilonRatio * gocv.ArcLength(contour, true)
	approx := gocv.ApproxPolyDP(contour, epsilon, true)
	defer approx.Close()

	w, h := float64(mask.Width), float64(mask.Height)
	pts := approx.ToPoints()
	polygon := make([]model.Point, len(pts))
	for i, p := range pts {
		polygon[i] = model.Point{X: float64(p.X) / w, Y: float64(p.Y) / h}
	}
	return polygon
}
