package stage

import (
	"image"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"golang.org/x/image/draw"
)

// ResampleStage redraws a frame through Kernel at its own size, softening
// the hard edges left behind by colour keying. A nil Kernel means CatmullRom.
type ResampleStage struct {
	Kernel draw.Interpolator
}

func (s *ResampleStage) Process(f *raster.Frame) error {
	kernel := s.Kernel
	if kernel == nil {
		kernel = draw.CatmullRom
	}
	rect := f.Canvas.Rect
	out := image.NewNRGBA(rect)
	kernel.Scale(out, rect, f.Canvas, rect, draw.Src, nil)
	f.Canvas = out
	return nil
}
