package raster

import (
	"fmt"
	"image"
	"math"
)

// Operator is a canvas compositing operation (globalCompositeOperation).
type Operator uint8

const (
	SourceOver Operator = iota
	SourceIn
	SourceOut
	SourceAtop
	DestinationOver
	DestinationIn
	DestinationOut
	DestinationAtop
	Xor
	Copy
	Lighter
	Multiply
	Screen
	Overlay
	Darken
	Lighten
	Difference
)

var operatorNames = [...]string{
	SourceOver:      "source-over",
	SourceIn:        "source-in",
	SourceOut:       "source-out",
	SourceAtop:      "source-atop",
	DestinationOver: "destination-over",
	DestinationIn:   "destination-in",
	DestinationOut:  "destination-out",
	DestinationAtop: "destination-atop",
	Xor:             "xor",
	Copy:            "copy",
	Lighter:         "lighter",
	Multiply:        "multiply",
	Screen:          "screen",
	Overlay:         "overlay",
	Darken:          "darken",
	Lighten:         "lighten",
	Difference:      "difference",
}

func (op Operator) String() string {
	if int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", op)
}

// ParseOperator resolves a canvas operator name.
func ParseOperator(name string) (Operator, error) {
	for i, n := range operatorNames {
		if n == name {
			return Operator(i), nil
		}
	}
	return SourceOver, fmt.Errorf("unknown composite operation %q", name)
}

func (op Operator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *Operator) UnmarshalText(text []byte) error {
	parsed, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// unbounded operators also affect destination pixels the source does not cover.
func (op Operator) unbounded() bool {
	switch op {
	case SourceIn, SourceOut, DestinationIn, DestinationAtop, Copy:
		return true
	}
	return false
}

func (op Operator) separable() (func(cb, cs float64) float64, bool) {
	switch op {
	case Multiply:
		return func(cb, cs float64) float64 { return cb * cs }, true
	case Screen:
		return screen, true
	case Overlay:
		return func(cb, cs float64) float64 {
			if cb <= 0.5 {
				return cs * 2 * cb
			}
			return screen(2*cb-1, cs)
		}, true
	case Darken:
		return math.Min, true
	case Lighten:
		return math.Max, true
	case Difference:
		return func(cb, cs float64) float64 { return math.Abs(cb - cs) }, true
	}
	return nil, false
}

func screen(cb, cs float64) float64 { return cb + cs - cb*cs }

// compose combines one premultiplied source channel (sc, sa) with one
// premultiplied destination channel (dc, da).
func (op Operator) compose(sc, sa, dc, da float64) float64 {
	switch op {
	case SourceIn:
		return sc * da
	case SourceOut:
		return sc * (1 - da)
	case SourceAtop:
		return sc*da + dc*(1-sa)
	case DestinationOver:
		return sc*(1-da) + dc
	case DestinationIn:
		return dc * sa
	case DestinationOut:
		return dc * (1 - sa)
	case DestinationAtop:
		return sc*(1-da) + dc*sa
	case Xor:
		return sc*(1-da) + dc*(1-sa)
	case Copy:
		return sc
	case Lighter:
		return math.Min(1, sc+dc)
	}
	if fn, ok := op.separable(); ok {
		var cs, cb float64
		if sa > 0 {
			cs = sc / sa
		}
		if da > 0 {
			cb = dc / da
		}
		return sc*(1-da) + dc*(1-sa) + sa*da*fn(cb, cs)
	}
	return sc + dc*(1-sa)
}

func (op Operator) alpha(sa, da float64) float64 {
	switch op {
	case SourceIn, DestinationIn:
		return sa * da
	case SourceOut:
		return sa * (1 - da)
	case SourceAtop:
		return da
	case DestinationOut:
		return da * (1 - sa)
	case DestinationAtop:
		return sa
	case Xor:
		return sa*(1-da) + da*(1-sa)
	case Copy:
		return sa
	case Lighter:
		return math.Min(1, sa+da)
	}
	return sa + da*(1-sa)
}

// composite blends the premultiplied layer onto dst within area. Pixels
// of area outside the layer are treated as transparent source.
func composite(dst *image.NRGBA, layer *image.RGBA, op Operator, globalAlpha float64, area image.Rectangle) {
	area = area.Intersect(dst.Rect)
	lb := layer.Rect
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			var sr, sg, sb, sa float64
			if (image.Point{X: x, Y: y}).In(lb) {
				si := layer.PixOffset(x, y)
				s := layer.Pix[si : si+4 : si+4]
				sr = float64(s[0]) / 255 * globalAlpha
				sg = float64(s[1]) / 255 * globalAlpha
				sb = float64(s[2]) / 255 * globalAlpha
				sa = float64(s[3]) / 255 * globalAlpha
			}
			if sa == 0 && !op.unbounded() {
				continue
			}

			di := dst.PixOffset(x, y)
			d := dst.Pix[di : di+4 : di+4]
			da := float64(d[3]) / 255
			dr := float64(d[0]) / 255 * da
			dg := float64(d[1]) / 255 * da
			db := float64(d[2]) / 255 * da

			oa := op.alpha(sa, da)
			if oa <= 0 {
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0
				continue
			}
			d[0] = unit8(op.compose(sr, sa, dr, da) / oa)
			d[1] = unit8(op.compose(sg, sa, dg, da) / oa)
			d[2] = unit8(op.compose(sb, sa, db, da) / oa)
			d[3] = unit8(oa)
		}
	}
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(v * 255))
}
