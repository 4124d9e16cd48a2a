package raster

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rect is a source sub-rectangle in source pixel space.
type Rect struct {
	X, Y, Width, Height float64
}

// Attributes are drawing-state overrides applied for one draw call. The
// JSON names follow the canvas properties used in template configuration.
type Attributes struct {
	CompositeOperation Operator `json:"globalCompositeOperation,omitempty"`
	Alpha              *float64 `json:"globalAlpha,omitempty"`
	ImageSmoothing     *bool    `json:"imageSmoothingEnabled,omitempty"`
	SmoothingQuality   string   `json:"imageSmoothingQuality,omitempty"`
}

// Op is a shorthand for attributes carrying only an operator and alpha.
func Op(op Operator, alpha float64) *Attributes {
	return &Attributes{CompositeOperation: op, Alpha: &alpha}
}

func (a *Attributes) operator() Operator {
	if a == nil {
		return SourceOver
	}
	return a.CompositeOperation
}

func (a *Attributes) globalAlpha() float64 {
	if a == nil || a.Alpha == nil {
		return 1
	}
	return math.Max(0, math.Min(1, *a.Alpha))
}

// DrawOptions describe where and how a source is painted. Zero Width or
// Height means the natural size of the source (or of Source when set).
type DrawOptions struct {
	Width, Height float64
	Source        *Rect
	Transform     Transform
	Attributes    *Attributes
	NoSmoothing   bool
}

// WithAttributes returns a copy of o using attrs.
func (o DrawOptions) WithAttributes(attrs *Attributes) DrawOptions {
	o.Attributes = attrs
	return o
}

func (o DrawOptions) interpolator(m f64.Aff3) draw.Transformer {
	attrs := o.Attributes
	switch {
	case o.NoSmoothing, attrs != nil && attrs.ImageSmoothing != nil && !*attrs.ImageSmoothing:
		return draw.NearestNeighbor
	case pixelExact(m):
		return draw.NearestNeighbor
	case attrs != nil && attrs.SmoothingQuality == "high":
		return draw.CatmullRom
	}
	return draw.ApproxBiLinear
}

// Draw paints src onto dst at (x, y). The transform and attributes in opts
// only apply to this call.
func Draw(dst *image.NRGBA, src image.Image, x, y float64, opts DrawOptions) error {
	sb := src.Bounds()
	if sb.Empty() {
		return nil
	}

	sr := Rect{Width: float64(sb.Dx()), Height: float64(sb.Dy())}
	w, h := opts.Width, opts.Height
	if opts.Source != nil {
		sr = *opts.Source
	}
	if w == 0 {
		w = sr.Width
	}
	if h == 0 {
		h = sr.Height
	}
	if sr.Width <= 0 || sr.Height <= 0 {
		return fmt.Errorf("invalid source rectangle %+v", sr)
	}
	if math.IsNaN(w+h+x+y) || math.IsInf(w+h+x+y, 0) {
		return fmt.Errorf("invalid destination %v,%v %vx%v", x, y, w, h)
	}
	if w == 0 || h == 0 {
		return nil
	}

	ctm, err := opts.Transform.matrix()
	if err != nil {
		return err
	}
	kx, ky := w/sr.Width, h/sr.Height
	m := mul(ctm, f64.Aff3{kx, 0, x - sr.X*kx, 0, ky, y - sr.Y*ky})

	op := opts.Attributes.operator()
	area := dst.Rect
	box := destinationBox(m, sr).Intersect(dst.Rect)
	if !op.unbounded() {
		if box.Empty() {
			return nil
		}
		area = box
	}

	layer := image.NewRGBA(box)
	if !box.Empty() {
		srcRect := image.Rect(
			int(math.Floor(sr.X)), int(math.Floor(sr.Y)),
			int(math.Ceil(sr.X+sr.Width)), int(math.Ceil(sr.Y+sr.Height)),
		).Add(sb.Min).Intersect(sb)
		// source pixels are addressed relative to the image origin
		s2d := mul(m, f64.Aff3{1, 0, -float64(sb.Min.X), 0, 1, -float64(sb.Min.Y)})
		opts.interpolator(m).Transform(layer, s2d, src, srcRect, draw.Src, nil)
	}

	composite(dst, layer, op, opts.Attributes.globalAlpha(), area)
	return nil
}

func destinationBox(m f64.Aff3, sr Rect) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{
		{sr.X, sr.Y}, {sr.X + sr.Width, sr.Y},
		{sr.X, sr.Y + sr.Height}, {sr.X + sr.Width, sr.Y + sr.Height},
	} {
		px, py := apply(m, c[0], c[1])
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// Clear resets the frame canvas to transparent black.
func (f *Frame) Clear() {
	clear(f.Canvas.Pix)
}
