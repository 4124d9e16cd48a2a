package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraw(t *testing.T) {
	t.Run("source over at offset", func(t *testing.T) {
		dst := solid(4, 4, white)
		require.NoError(t, Draw(dst, solid(2, 2, red), 2, 2, DrawOptions{}))
		assert.Equal(t, white, dst.NRGBAAt(1, 1))
		assert.Equal(t, red, dst.NRGBAAt(2, 2))
		assert.Equal(t, red, dst.NRGBAAt(3, 3))
	})

	t.Run("scaled destination", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		require.NoError(t, Draw(dst, solid(1, 1, red), 0, 0, DrawOptions{Width: 4, Height: 4, NoSmoothing: true}))
		for _, p := range []image.Point{{0, 0}, {3, 0}, {0, 3}, {3, 3}} {
			assert.Equal(t, red, dst.NRGBAAt(p.X, p.Y), "pixel %v", p)
		}
	})

	t.Run("source rectangle", func(t *testing.T) {
		src := solid(2, 1, red)
		src.SetNRGBA(1, 0, blue)
		dst := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		require.NoError(t, Draw(dst, src, 0, 0, DrawOptions{Source: &Rect{X: 1, Y: 0, Width: 1, Height: 1}}))
		assert.Equal(t, blue, dst.NRGBAAt(0, 0))
		assert.Equal(t, transparent, dst.NRGBAAt(1, 0))
	})

	t.Run("mirror transform", func(t *testing.T) {
		src := solid(2, 1, red)
		src.SetNRGBA(1, 0, blue)
		dst := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		opts := DrawOptions{Transform: Transform{Translate(2, 0), Scale(-1, 1)}}
		require.NoError(t, Draw(dst, src, 0, 0, opts))
		assert.Equal(t, blue, dst.NRGBAAt(0, 0))
		assert.Equal(t, red, dst.NRGBAAt(1, 0))
	})

	t.Run("transform does not leak into later draws", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 4, 1))
		opts := DrawOptions{Transform: Transform{Translate(2, 0)}}
		require.NoError(t, Draw(dst, solid(1, 1, red), 0, 0, opts))
		require.NoError(t, Draw(dst, solid(1, 1, blue), 0, 0, DrawOptions{}))
		assert.Equal(t, blue, dst.NRGBAAt(0, 0))
		assert.Equal(t, red, dst.NRGBAAt(2, 0))
	})

	t.Run("global alpha", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		opts := DrawOptions{Attributes: Op(SourceOver, 0.5)}
		require.NoError(t, Draw(dst, solid(1, 1, white), 0, 0, opts))
		assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}, dst.NRGBAAt(0, 0))
	})

	t.Run("unknown transform", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		opts := DrawOptions{Transform: Transform{{Name: "skew", Args: []float64{1}}}}
		assert.Error(t, Draw(dst, solid(1, 1, white), 0, 0, opts))
	})

	t.Run("invalid source rectangle", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		opts := DrawOptions{Source: &Rect{Width: 0, Height: 1}}
		assert.Error(t, Draw(dst, solid(1, 1, white), 0, 0, opts))
	})

	t.Run("outside the destination", func(t *testing.T) {
		dst := solid(2, 2, white)
		require.NoError(t, Draw(dst, solid(2, 2, red), 10, 10, DrawOptions{}))
		assert.Equal(t, white, dst.NRGBAAt(0, 0))
	})
}

func TestDraw_Operators(t *testing.T) {
	t.Run("multiply", func(t *testing.T) {
		dst := solid(1, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 0xff})
		src := solid(1, 1, color.NRGBA{R: 128, G: 255, A: 0xff})
		require.NoError(t, Draw(dst, src, 0, 0, DrawOptions{Attributes: Op(Multiply, 1)}))
		assert.Equal(t, color.NRGBA{R: 100, G: 100, B: 0, A: 0xff}, dst.NRGBAAt(0, 0))
	})

	t.Run("source-in clears uncovered destination", func(t *testing.T) {
		dst := solid(4, 4, red)
		require.NoError(t, Draw(dst, solid(2, 2, blue), 0, 0, DrawOptions{Attributes: Op(SourceIn, 1)}))
		assert.Equal(t, blue, dst.NRGBAAt(0, 0))
		assert.Equal(t, transparent, dst.NRGBAAt(3, 3))
	})

	t.Run("source-atop keeps destination alpha", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		dst.SetNRGBA(0, 0, red)
		require.NoError(t, Draw(dst, solid(2, 1, blue), 0, 0, DrawOptions{Attributes: Op(SourceAtop, 1)}))
		assert.Equal(t, blue, dst.NRGBAAt(0, 0))
		assert.Equal(t, transparent, dst.NRGBAAt(1, 0))
	})

	t.Run("destination-over", func(t *testing.T) {
		dst := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		dst.SetNRGBA(0, 0, red)
		require.NoError(t, Draw(dst, solid(2, 1, blue), 0, 0, DrawOptions{Attributes: Op(DestinationOver, 1)}))
		assert.Equal(t, red, dst.NRGBAAt(0, 0))
		assert.Equal(t, blue, dst.NRGBAAt(1, 0))
	})

	t.Run("destination-out", func(t *testing.T) {
		dst := solid(2, 1, red)
		require.NoError(t, Draw(dst, solid(1, 1, blue), 0, 0, DrawOptions{Attributes: Op(DestinationOut, 1)}))
		assert.Equal(t, transparent, dst.NRGBAAt(0, 0))
		assert.Equal(t, red, dst.NRGBAAt(1, 0))
	})

	t.Run("copy", func(t *testing.T) {
		dst := solid(2, 1, red)
		require.NoError(t, Draw(dst, solid(1, 1, blue), 0, 0, DrawOptions{Attributes: Op(Copy, 1)}))
		assert.Equal(t, blue, dst.NRGBAAt(0, 0))
		assert.Equal(t, transparent, dst.NRGBAAt(1, 0))
	})
}

func TestOperator_Text(t *testing.T) {
	for i, name := range operatorNames {
		op, err := ParseOperator(name)
		require.NoError(t, err)
		assert.Equal(t, Operator(i), op)
		assert.Equal(t, name, op.String())
	}

	var op Operator
	assert.Error(t, op.UnmarshalText([]byte("plus-darker")))
	require.NoError(t, op.UnmarshalText([]byte("screen")))
	assert.Equal(t, Screen, op)
}
