package stage

import (
	"image/color"
	"math"

	"github.com/rm-hull/emote-overlays/internal/raster"
)

// TintStage interpolates every pixel's colour between Color (Reveal = 0)
// and its own colour (Reveal = 1). Alpha is left alone.
type TintStage struct {
	Color  color.NRGBA
	Reveal float64
}

// Silhouette paints every pixel in c, keeping its alpha.
func Silhouette(c color.NRGBA) *TintStage {
	return &TintStage{Color: c}
}

func (s *TintStage) Process(f *raster.Frame) error {
	k := math.Max(0, math.Min(1, s.Reveal))
	startR, startG, startB := float64(s.Color.R), float64(s.Color.G), float64(s.Color.B)
	pix := f.Canvas.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8(math.Round(startR + (float64(pix[i])-startR)*k))
		pix[i+1] = uint8(math.Round(startG + (float64(pix[i+1])-startG)*k))
		pix[i+2] = uint8(math.Round(startB + (float64(pix[i+2])-startB)*k))
	}
	return nil
}
