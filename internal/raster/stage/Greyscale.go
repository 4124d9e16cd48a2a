package stage

import (
	"github.com/rm-hull/emote-overlays/internal/raster"
)

type GreyscaleStage struct{}

// Process converts the frame to greyscale using luminance calculation
// The alpha channel is set based on the luminance value, with higher luminance resulting in higher opacity
// Fully transparent pixels remain transparent
func (s *GreyscaleStage) Process(f *raster.Frame) error {
	pix := f.Canvas.Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i+3] == 0 {
			pix[i], pix[i+1], pix[i+2] = 0, 0, 0
			continue
		}
		// Calculate luminance using standard coefficients
		// Reference: https://en.wikipedia.org/wiki/Grayscale#Luma_coding_in_video_systems
		lum := 0.299*float64(pix[i]) + 0.587*float64(pix[i+1]) + 0.114*float64(pix[i+2])
		pix[i], pix[i+1], pix[i+2] = 255, 255, 255
		pix[i+3] = uint8(lum * float64(pix[i+3]) / 255)
	}
	return nil
}
