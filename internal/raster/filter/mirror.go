package filter

import (
	"fmt"

	"github.com/rm-hull/emote-overlays/internal/raster"
)

// MirrorX draws the source reflected across a horizontal axis.
func MirrorX(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error) {
	return mirror(target, source, x, y, opts, func(tr, sc [2]float64, _, height float64) raster.Transform {
		return raster.Transform{
			raster.Translate(tr[0], height-tr[1]),
			raster.Scale(sc[0], -sc[1]),
		}
	})
}

// MirrorY draws the source reflected across a vertical axis.
func MirrorY(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error) {
	return mirror(target, source, x, y, opts, func(tr, sc [2]float64, width, _ float64) raster.Transform {
		return raster.Transform{
			raster.Translate(width-tr[0], tr[1]),
			raster.Scale(-sc[0], sc[1]),
		}
	})
}

type reflection func(translate, scale [2]float64, width, height float64) raster.Transform

func mirror(target, source *raster.Surface, x, y float64, opts raster.DrawOptions, reflect reflection) (*raster.Surface, error) {
	if err := target.DrawSurface(source, x, y, opts); err != nil {
		return nil, err
	}
	if len(source.Frames) == 0 {
		return target, nil
	}

	width, height := opts.Width, opts.Height
	if width == 0 {
		width = float64(source.Width)
	}
	if height == 0 {
		height = float64(source.Height)
	}
	reflected := raster.DrawOptions{
		Transform: reflect(
			opts.Transform.Pair("translate", [2]float64{0, 0}),
			opts.Transform.Pair("scale", [2]float64{1, 1}),
			width, height,
		),
	}

	for i, frame := range target.Frames {
		frame.Clear()
		sf := source.Frames[0]
		if i < len(source.Frames) {
			sf = source.Frames[i]
		}
		if err := raster.Draw(frame.Canvas, sf.Canvas, 0, 0, reflected); err != nil {
			return nil, fmt.Errorf("mirror frame %d: %w", i, err)
		}
	}
	return target, nil
}
