package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"math"

	"github.com/ericpauley/go-quantize/quantize"
)

// Format selects the bitstream used for animated surfaces. Stills are
// always written as PNG.
type Format int

const (
	FormatGIF Format = iota
	FormatAPNG
)

const (
	ContentTypePNG = "image/png"
	ContentTypeGIF = "image/gif"

	maxGIFDelay = 0xFFFF
)

// ParseFormat maps a user supplied format name onto a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "gif":
		return FormatGIF, nil
	case "apng", "png":
		return FormatAPNG, nil
	}
	return FormatGIF, fmt.Errorf("unsupported output format %q", name)
}

// Encode writes s to w and reports the content type written.
func (s *Surface) Encode(w io.Writer, format Format) (string, error) {
	switch {
	case len(s.Frames) == 0:
		return "", ErrExportEmpty
	case len(s.Frames) == 1:
		return ContentTypePNG, png.Encode(w, s.Frames[0].Canvas)
	case format == FormatAPNG:
		return ContentTypePNG, s.encodeAPNG(w)
	}
	return ContentTypeGIF, s.encodeGIF(w)
}

// Bytes encodes s into memory; len of the result is the size a caller
// checks against its upload ceiling.
func (s *Surface) Bytes(format Format) ([]byte, string, error) {
	var buf bytes.Buffer
	buf.Grow(s.Width * s.Height * 4)
	contentType, err := s.Encode(&buf, format)
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), contentType, nil
}

func (s *Surface) encodeGIF(w io.Writer) error {
	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(s.Frames)),
		Delay:     make([]int, len(s.Frames)),
		Disposal:  make([]byte, len(s.Frames)),
		LoopCount: s.Loops,
		Config: image.Config{
			Width:  s.Width,
			Height: s.Height,
		},
	}

	transparent := s.Frames[0].TransparentIndex
	for i, f := range s.Frames {
		g.Image[i] = paletted(f.Canvas, transparent)
		g.Delay[i] = gifDelay(f.ActualDelay)
		g.Disposal[i] = gif.DisposalBackground
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

func gifDelay(actual float64) int {
	if math.IsInf(actual, 1) {
		return maxGIFDelay
	}
	return int(math.Max(2, math.Min(maxGIFDelay, math.Round(actual/10))))
}

// paletted quantizes one frame to at most 255 colours plus a transparent
// slot at index transparent. Pixels below half opacity become transparent.
func paletted(img *image.NRGBA, transparent int) *image.Paletted {
	colors := quantizeOpaque(img)
	if len(colors) == 0 {
		colors = color.Palette{color.Black}
	}
	if transparent < 0 || transparent > len(colors) {
		transparent = 0
	}
	palette := make(color.Palette, 0, len(colors)+1)
	palette = append(palette, colors[:transparent]...)
	palette = append(palette, color.Transparent)
	palette = append(palette, colors[transparent:]...)

	out := image.NewPaletted(img.Rect, palette)
	cache := make(map[[3]uint8]uint8)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			if img.Pix[i+3] < 0x80 {
				out.SetColorIndex(x, y, uint8(transparent))
				continue
			}
			key := [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
			idx, ok := cache[key]
			if !ok {
				idx = uint8(nearestOpaque(colors, key))
				if idx >= uint8(transparent) {
					idx++
				}
				cache[key] = idx
			}
			out.SetColorIndex(x, y, idx)
		}
	}
	return out
}

// quantizeOpaque builds a palette from the pixels that stay visible in a
// GIF; they are packed into a single row so the transparent ones are never
// sampled.
func quantizeOpaque(img *image.NRGBA) color.Palette {
	visible := make([]uint8, 0, len(img.Pix))
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i+3] >= 0x80 {
			visible = append(visible, img.Pix[i], img.Pix[i+1], img.Pix[i+2], 0xFF)
		}
	}
	if len(visible) == 0 {
		return nil
	}
	row := &image.NRGBA{
		Pix:    visible,
		Stride: len(visible),
		Rect:   image.Rect(0, 0, len(visible)/4, 1),
	}
	q := quantize.MedianCutQuantizer{}
	return q.Quantize(make(color.Palette, 0, 255), row)
}

func nearestOpaque(p color.Palette, c [3]uint8) int {
	return p.Index(color.NRGBA{R: c[0], G: c[1], B: c[2], A: 0xFF})
}
