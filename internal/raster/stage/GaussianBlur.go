package stage

import (
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	"github.com/rm-hull/emote-overlays/internal/raster"
)

// GaussianBlurStage blurs a frame in place; Sigma <= 0 leaves it untouched.
type GaussianBlurStage struct {
	Sigma float64
}

func (s *GaussianBlurStage) Process(f *raster.Frame) error {
	if s.Sigma <= 0 {
		return nil
	}
	blurred := blur.Gaussian(f.Canvas, s.Sigma)
	draw.Draw(f.Canvas, f.Canvas.Rect, blurred, blurred.Rect.Min, draw.Src)
	return nil
}
