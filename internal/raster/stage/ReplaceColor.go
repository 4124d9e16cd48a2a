package stage

import (
	"image/color"
	"math"

	"github.com/rm-hull/emote-overlays/internal/raster"
)

type ReplaceColorStage struct {
	Tolerance float64
	Replace   color.Color
}

// Process replaces pixels close to the specified color with transparency based on the distance to that color
// Tolerance defines how close a pixel must be to the target color to be affected
// A pixel exactly matching the target color becomes fully transparent, one at the edge of the tolerance remains opaque
func (s *ReplaceColorStage) Process(f *raster.Frame) error {
	replaceR, replaceG, replaceB, _ := s.Replace.RGBA()
	rR, rG, rB := float64(replaceR>>8), float64(replaceG>>8), float64(replaceB>>8)
	pix := f.Canvas.Pix
	for i := 0; i < len(pix); i += 4 {
		R, G, B, A := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]), float64(pix[i+3])
		dist := math.Sqrt((rR-R)*(rR-R) + (rG-G)*(rG-G) + (rB-B)*(rB-B))
		if dist < s.Tolerance {
			pix[i+3] = uint8((dist / s.Tolerance) * A)
		}
	}
	return nil
}
