package filter

import (
	"errors"
	"fmt"
	"image/color"
	"maps"
	"slices"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/raster/stage"
)

var ErrUnknownFilter = errors.New("unknown filter")

// Filter draws source onto target at (x, y) and post-processes the result.
// Implementations mutate and return target.
type Filter interface {
	Apply(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error)
}

// Func adapts a plain function to Filter.
type Func func(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error)

func (fn Func) Apply(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error) {
	return fn(target, source, x, y, opts)
}

// silhouette is the dark blue used by the pokemon filters.
var silhouette = color.NRGBA{R: 0x1d, G: 0x65, B: 0x99, A: 0xff}

var registry = map[string]Filter{
	"overlay":             Func(Overlay),
	"mirror_x":            Func(MirrorX),
	"mirror_y":            Func(MirrorY),
	"invert_transparency": Stages(&stage.InvertAlphaStage{}),
	"pokemon_static":      Stages(stage.Silhouette(silhouette)),
	"pokemon_reveal":      Func(PokemonReveal),
	"greyscale":           Stages(&stage.GreyscaleStage{}),
	"blur":                Stages(&stage.GaussianBlurStage{Sigma: 1}),
	"knockout_white": Stages(
		&stage.ReplaceColorStage{Tolerance: 50, Replace: color.White},
		&stage.GaussianBlurStage{Sigma: 1},
		&stage.ResampleStage{},
	),
}

// Lookup returns the named filter.
func Lookup(name string) (Filter, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return f, nil
}

// Names lists the registered filters in alphabetical order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Stages returns a filter that draws the source normally and then runs
// the given pixel stages over every frame of the target.
func Stages(stages ...raster.FrameStage) Filter {
	return Func(func(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error) {
		if err := target.DrawSurface(source, x, y, opts); err != nil {
			return nil, err
		}
		if err := target.Pipeline(stages...); err != nil {
			return nil, err
		}
		return target, nil
	})
}
