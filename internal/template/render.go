package template

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/raster/filter"
)

// InvalidTemplateError reports any failure while rendering a template. The
// message shown to end users never includes the cause.
type InvalidTemplateError struct {
	Src string
	Err error
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid template %q: %v", e.Src, e.Err)
}

func (e *InvalidTemplateError) Unwrap() error {
	return e.Err
}

// Result is a rendered surface together with the geometry used to build it.
type Result struct {
	Surface  *raster.Surface
	Geometry Geometry
}

type layer struct {
	name       string
	z          float64
	image      *raster.Surface
	x, y, w, h float64
	flip       bool
	attributes *raster.Attributes
	filter     string
}

// Render draws one template layer together with base into a new surface.
// base and the template image are only read.
func Render(t *Template, base *raster.Surface, size *Size, flip bool) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &InvalidTemplateError{Src: t.Src, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if t.Image == nil {
		return nil, &InvalidTemplateError{Src: t.Src, Err: errors.New("template image is not loaded")}
	}
	g, err := Layout(t, float64(base.Width), float64(base.Height), size)
	if err != nil {
		return nil, &InvalidTemplateError{Src: t.Src, Err: err}
	}

	imageX := g.ImageOffsetX
	if flip {
		imageX = g.ResultingWidth - g.ImageOffsetX - g.ImageWidth
	}
	layers := []layer{{
		name:       "image",
		z:          1,
		image:      base,
		x:          imageX,
		y:          g.ImageOffsetY,
		w:          g.ImageWidth,
		h:          g.ImageHeight,
		flip:       flip && t.Image.EffectOnly,
		attributes: t.SrcAttributes,
		filter:     t.SrcFilter,
	}}
	if !t.Image.EffectOnly {
		layers = append(layers, layer{
			name:       "template " + t.Src,
			z:          t.Z,
			image:      t.Image,
			x:          g.TemplateOffsetX,
			y:          g.TemplateOffsetY,
			w:          g.TemplateWidth,
			h:          g.TemplateHeight,
			flip:       flip,
			attributes: t.Attributes,
			filter:     t.Filter,
		})
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].z < layers[j].z
	})

	out := raster.New(g.ResultingWidth, g.ResultingHeight, base.Loops)
	for _, l := range layers {
		opts := raster.DrawOptions{Width: l.w, Height: l.h, Attributes: l.attributes}
		if l.flip {
			opts.Transform = raster.Transform{
				raster.Translate(g.ResultingWidth, 0),
				raster.Scale(-1, 1),
			}
		}
		if out, err = drawLayer(out, l, opts); err != nil {
			return nil, &InvalidTemplateError{Src: t.Src, Err: fmt.Errorf("%s: %w", l.name, err)}
		}
	}

	raster.Logger().Debug("rendered template",
		"src", t.Src,
		"flip", flip,
		"width", out.Width,
		"height", out.Height,
		"frames", len(out.Frames),
		"scale", g.TemplateScale,
		"templateX", g.TemplateOffsetX,
		"templateY", g.TemplateOffsetY,
	)
	return &Result{Surface: out, Geometry: g}, nil
}

func drawLayer(out *raster.Surface, l layer, opts raster.DrawOptions) (*raster.Surface, error) {
	if l.filter == "" {
		return out, out.DrawSurface(l.image, l.x, l.y, opts)
	}
	f, err := filter.Lookup(l.filter)
	if err != nil {
		return nil, err
	}
	return f.Apply(out, l.image, l.x, l.y, opts)
}

// RenderChain renders the layers in order, each output becoming the base
// of the next layer.
func RenderChain(layers Layers, base *raster.Surface, flip bool) (*raster.Surface, error) {
	current := base
	for _, t := range layers {
		res, err := Render(t, current, nil, flip)
		if err != nil {
			return nil, err
		}
		current = res.Surface
	}
	return current, nil
}
