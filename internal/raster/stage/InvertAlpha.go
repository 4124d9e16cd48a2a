package stage

import (
	"github.com/rm-hull/emote-overlays/internal/raster"
)

type InvertAlphaStage struct{}

// Process flips the alpha channel of every pixel, colour channels are untouched
func (s *InvertAlphaStage) Process(f *raster.Frame) error {
	pix := f.Canvas.Pix
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255 - pix[i]
	}
	return nil
}
