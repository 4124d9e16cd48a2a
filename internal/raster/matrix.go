package raster

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

// TransformOp is one drawing-context transformation, named after the
// canvas method it mirrors ("translate", "scale", "rotate", "transform").
type TransformOp struct {
	Name string    `json:"name"`
	Args []float64 `json:"args"`
}

// Transform is an ordered list of operations applied for a single draw call.
type Transform []TransformOp

func Translate(x, y float64) TransformOp {
	return TransformOp{Name: "translate", Args: []float64{x, y}}
}

func Scale(x, y float64) TransformOp {
	return TransformOp{Name: "scale", Args: []float64{x, y}}
}

func Rotate(rad float64) TransformOp {
	return TransformOp{Name: "rotate", Args: []float64{rad}}
}

// Lookup returns the arguments of the first operation with the given name.
func (t Transform) Lookup(name string) ([]float64, bool) {
	for _, op := range t {
		if op.Name == name {
			return op.Args, true
		}
	}
	return nil, false
}

// Pair returns the two arguments of the named operation, or def when absent.
func (t Transform) Pair(name string, def [2]float64) [2]float64 {
	args, ok := t.Lookup(name)
	if !ok || len(args) < 2 {
		return def
	}
	return [2]float64{args[0], args[1]}
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

func (t Transform) matrix() (f64.Aff3, error) {
	m := identity
	for _, op := range t {
		var next f64.Aff3
		switch op.Name {
		case "translate":
			if len(op.Args) != 2 {
				return m, fmt.Errorf("translate expects 2 arguments, got %d", len(op.Args))
			}
			next = f64.Aff3{1, 0, op.Args[0], 0, 1, op.Args[1]}
		case "scale":
			if len(op.Args) != 2 {
				return m, fmt.Errorf("scale expects 2 arguments, got %d", len(op.Args))
			}
			next = f64.Aff3{op.Args[0], 0, 0, 0, op.Args[1], 0}
		case "rotate":
			if len(op.Args) != 1 {
				return m, fmt.Errorf("rotate expects 1 argument, got %d", len(op.Args))
			}
			sin, cos := math.Sincos(op.Args[0])
			next = f64.Aff3{cos, -sin, 0, sin, cos, 0}
		case "transform":
			// canvas argument order: a, b, c, d, e, f
			if len(op.Args) != 6 {
				return m, fmt.Errorf("transform expects 6 arguments, got %d", len(op.Args))
			}
			a := op.Args
			next = f64.Aff3{a[0], a[2], a[4], a[1], a[3], a[5]}
		default:
			return m, fmt.Errorf("unsupported transform operation %q", op.Name)
		}
		m = mul(m, next)
	}
	return m, nil
}

// mul returns the matrix applying b first, then a.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// pixelExact reports whether m maps whole source pixels onto whole
// destination pixels (identity or mirror scale, integer offsets).
func pixelExact(m f64.Aff3) bool {
	isInt := func(v float64) bool { return v == math.Trunc(v) }
	return m[1] == 0 && m[3] == 0 &&
		math.Abs(m[0]) == 1 && math.Abs(m[4]) == 1 &&
		isInt(m[2]) && isInt(m[5])
}
