package template

import (
	"fmt"
	"math"
)

const maxTemplateScale = 10

// Size overrides the effective base image size. A zero dimension is
// derived from the other, keeping the aspect ratio.
type Size struct {
	Width, Height float64
}

// Geometry is the placement computed for one render.
type Geometry struct {
	ImageWidth, ImageHeight          float64
	ImageOffsetX, ImageOffsetY       float64
	TemplateOffsetX, TemplateOffsetY float64
	TemplateWidth, TemplateHeight    float64
	ResultingWidth, ResultingHeight  float64
	XScale, YScale, TemplateScale    float64
}

type axis struct {
	position, offset, size float64
	absolute               bool
}

func (a Axis) eval(imgWidth, imgHeight float64) (axis, error) {
	var (
		out axis
		err error
	)
	if out.position, err = a.Position.Eval(imgWidth, imgHeight); err != nil {
		return out, fmt.Errorf("position: %w", err)
	}
	if out.offset, err = a.Offset.Eval(imgWidth, imgHeight); err != nil {
		return out, fmt.Errorf("offset: %w", err)
	}
	if out.size, err = a.Size.Eval(imgWidth, imgHeight); err != nil {
		return out, fmt.Errorf("size: %w", err)
	}
	out.absolute = a.Absolute
	return out, nil
}

func (a axis) place(scale, imageSize float64) float64 {
	if a.absolute {
		return a.offset
	}
	return imageSize*a.position/100 - a.offset*scale
}

func effectiveSize(width, height float64, size *Size) (float64, float64) {
	if size == nil {
		return width, height
	}
	w, h := width, height
	if size.Height > 0 {
		h = size.Height
		if size.Width <= 0 {
			w = width * size.Height / height
		}
	}
	if size.Width > 0 {
		w = size.Width
		if size.Height <= 0 {
			h = height * size.Width / width
		}
	}
	return w, h
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Layout computes where the template and the base image are drawn and how
// large the output canvas has to be.
func Layout(t *Template, width, height float64, size *Size) (Geometry, error) {
	imgWidth, imgHeight := effectiveSize(width, height, size)
	g := Geometry{ImageWidth: imgWidth, ImageHeight: imgHeight}

	x, err := t.Anchor.X.eval(imgWidth, imgHeight)
	if err != nil {
		return g, fmt.Errorf("anchor x %w", err)
	}
	y, err := t.Anchor.Y.eval(imgWidth, imgHeight)
	if err != nil {
		return g, fmt.Errorf("anchor y %w", err)
	}

	effectOnly := t.Image == nil || t.Image.EffectOnly
	if effectOnly {
		g.XScale, g.YScale = 1, 1
	} else {
		g.XScale, g.YScale = imgWidth/x.size, imgHeight/y.size
	}
	g.TemplateScale = math.Max(0, math.Min(maxTemplateScale, math.Max(finiteOrZero(g.XScale), finiteOrZero(g.YScale))))

	g.TemplateOffsetX = x.place(g.TemplateScale, imgWidth)
	g.TemplateOffsetY = y.place(g.TemplateScale, imgHeight)
	g.ResultingWidth, g.ResultingHeight = imgWidth, imgHeight

	if g.TemplateOffsetX < 0 {
		g.ResultingWidth -= g.TemplateOffsetX
		g.ImageOffsetX = -g.TemplateOffsetX
		g.TemplateOffsetX = 0
	}
	if g.TemplateOffsetY < 0 {
		g.ResultingHeight -= g.TemplateOffsetY
		g.ImageOffsetY = -g.TemplateOffsetY
		g.TemplateOffsetY = 0
	}

	if !effectOnly {
		g.TemplateWidth = float64(t.Image.Width) * g.TemplateScale
		g.TemplateHeight = float64(t.Image.Height) * g.TemplateScale
	}
	g.ResultingWidth = math.Max(g.ResultingWidth, g.TemplateOffsetX+g.TemplateWidth)
	g.ResultingHeight = math.Max(g.ResultingHeight, g.TemplateOffsetY+g.TemplateHeight)

	if math.IsNaN(g.ResultingWidth+g.ResultingHeight) || math.IsInf(g.ResultingWidth+g.ResultingHeight, 0) {
		return g, fmt.Errorf("invalid output size %vx%v", g.ResultingWidth, g.ResultingHeight)
	}
	return g, nil
}
