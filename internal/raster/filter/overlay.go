package filter

import (
	"fmt"
	"image"

	"github.com/rm-hull/emote-overlays/internal/raster"
)

// Overlay tints every target frame with the first source frame: a
// multiply pass and a source-in pass are combined back with source-atop so
// only pixels already present on the frame are touched.
func Overlay(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error) {
	if len(source.Frames) == 0 {
		return target, nil
	}
	basic := raster.DrawOptions{Width: opts.Width, Height: opts.Height}
	tint := source.Frames[0].Canvas

	for i, frame := range target.Frames {
		multiplied := image.NewNRGBA(frame.Canvas.Rect)
		if err := raster.Draw(multiplied, frame.Canvas, x, y, basic); err != nil {
			return nil, fmt.Errorf("overlay frame %d: %w", i, err)
		}
		if err := raster.Draw(multiplied, tint, x, y, opts.WithAttributes(raster.Op(raster.Multiply, 1))); err != nil {
			return nil, fmt.Errorf("overlay frame %d: %w", i, err)
		}

		masked := image.NewNRGBA(frame.Canvas.Rect)
		if err := raster.Draw(masked, frame.Canvas, x, y, basic); err != nil {
			return nil, fmt.Errorf("overlay frame %d: %w", i, err)
		}
		if err := raster.Draw(masked, tint, x, y, opts.WithAttributes(raster.Op(raster.SourceIn, 1))); err != nil {
			return nil, fmt.Errorf("overlay frame %d: %w", i, err)
		}

		if err := raster.Draw(frame.Canvas, masked, x, y, basic.WithAttributes(raster.Op(raster.SourceAtop, 1))); err != nil {
			return nil, fmt.Errorf("overlay frame %d: %w", i, err)
		}
		if err := raster.Draw(frame.Canvas, multiplied, x, y, basic.WithAttributes(raster.Op(raster.SourceAtop, 0.6))); err != nil {
			return nil, fmt.Errorf("overlay frame %d: %w", i, err)
		}
	}
	return target, nil
}
