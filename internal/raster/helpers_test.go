package raster

import (
	"image"
	"image/color"
	"image/draw"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func stillSurface(w, h int, c color.NRGBA) *Surface {
	return FromImage(solid(w, h, c))
}

func animatedSurface(w, h int, delays ...float64) *Surface {
	s := New(float64(w), float64(h), 0)
	for _, d := range delays {
		f, err := s.AddFrame(WithDelay(d))
		if err != nil {
			panic(err)
		}
		draw.Draw(f.Canvas, f.Canvas.Rect, image.NewUniform(color.NRGBA{B: 0xff, A: 0xff}), image.Point{}, draw.Src)
	}
	return s
}

var (
	red         = color.NRGBA{R: 0xff, A: 0xff}
	green       = color.NRGBA{G: 0xff, A: 0xff}
	blue        = color.NRGBA{B: 0xff, A: 0xff}
	white       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	transparent = color.NRGBA{}
)
