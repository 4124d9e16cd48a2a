package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/deepteams/webp"
	"github.com/deepteams/webp/animation"
	"github.com/disintegration/imaging"
	"github.com/kettek/apng"
	_ "golang.org/x/image/bmp"
)

type disposal uint8

const (
	disposeNone disposal = iota
	disposeClear
	disposeRestore
)

// accumulator composes partial animation frames into full canvases. It
// owns one running canvas and remembers how to dispose of the last frame.
type accumulator struct {
	canvas  *image.NRGBA
	saved   *image.NRGBA
	pending disposal
}

func newAccumulator(width, height int) *accumulator {
	return &accumulator{canvas: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// next draws one sub-frame and returns a snapshot of the visible canvas.
func (a *accumulator) next(sub image.Image, at image.Point, op draw.Op, dispose disposal) *image.NRGBA {
	switch a.pending {
	case disposeClear:
		clear(a.canvas.Pix)
	case disposeRestore:
		if a.saved != nil {
			copy(a.canvas.Pix, a.saved.Pix)
		}
	}

	if dispose == disposeRestore {
		if a.saved == nil {
			a.saved = image.NewNRGBA(a.canvas.Rect)
		}
		copy(a.saved.Pix, a.canvas.Pix)
	}
	a.pending = dispose

	sb := sub.Bounds()
	draw.Draw(a.canvas, sb.Sub(sb.Min).Add(at), sub, sb.Min, op)
	return cloneNRGBA(a.canvas)
}

func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	return imaging.Clone(img)
}

// Decode turns encoded image bytes into a surface. The content type picks
// the animated decoders; anything else is decoded as a still image.
func Decode(data []byte, contentType string) (*Surface, error) {
	var (
		s   *Surface
		err error
	)
	switch mediaType(contentType) {
	case "image/gif":
		s, err = decodeGIF(data)
	case "image/apng", "image/vnd.mozilla.apng":
		s, err = decodeAPNG(data)
	case "image/png":
		if isAnimatedPNG(data) {
			s, err = decodeAPNG(data)
		} else {
			s, err = decodeStill(data)
		}
	case "image/webp":
		s, err = decodeWebP(data)
	default:
		s, err = decodeStill(data)
	}
	if err != nil {
		return nil, err
	}
	if len(s.Frames) == 0 {
		return nil, fmt.Errorf("decoded %s contains no frames", contentType)
	}
	Logger().Debug("decoded image", "type", contentType, "width", s.Width, "height", s.Height, "frames", len(s.Frames))
	return s, nil
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func decodeStill(data []byte) (*Surface, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage wraps a still image as a single-frame surface.
func FromImage(img image.Image) *Surface {
	b := img.Bounds()
	s := New(float64(b.Dx()), float64(b.Dy()), 0)
	canvas := image.NewNRGBA(s.Bounds())
	draw.Draw(canvas, canvas.Rect, img, b.Min, draw.Src)
	s.appendFrame(canvas, math.Inf(1), math.Inf(1))
	return s
}

func decodeGIF(data []byte) (*Surface, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	s := New(float64(g.Config.Width), float64(g.Config.Height), g.LoopCount)
	acc := newAccumulator(s.Width, s.Height)
	for i, sub := range g.Image {
		dispose := disposeNone
		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				dispose = disposeClear
			case gif.DisposalPrevious:
				dispose = disposeRestore
			}
		}
		raw := 0.0
		if i < len(g.Delay) {
			raw = float64(g.Delay[i])
		}
		canvas := acc.next(sub, sub.Bounds().Min, draw.Over, dispose)
		s.appendFrame(canvas, raw, math.Max(raw*10, minActualDelay))
	}
	return s, nil
}

// loopsFromPlays converts a total play count (0 = forever), as stored by
// APNG and WebP, into the GIF loop convention used by Surface.
func loopsFromPlays(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return -1
	}
	return n - 1
}

func isAnimatedPNG(data []byte) bool {
	idat := bytes.Index(data, []byte("IDAT"))
	actl := bytes.Index(data, []byte("acTL"))
	return actl >= 0 && (idat < 0 || actl < idat)
}

func decodeAPNG(data []byte) (*Surface, error) {
	a, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode apng: %w", err)
	}

	var width, height int
	for _, f := range a.Frames {
		if !f.IsDefault || len(a.Frames) == 1 {
			b := f.Image.Bounds()
			width = max(width, f.XOffset+b.Dx())
			height = max(height, f.YOffset+b.Dy())
		}
	}

	s := New(float64(width), float64(height), loopsFromPlays(int(a.LoopCount)))
	acc := newAccumulator(width, height)
	for _, f := range a.Frames {
		if f.IsDefault && len(a.Frames) > 1 {
			continue
		}
		dispose := disposeNone
		switch f.DisposeOp {
		case apng.DISPOSE_OP_BACKGROUND:
			dispose = disposeClear
		case apng.DISPOSE_OP_PREVIOUS:
			dispose = disposeRestore
		}
		op := draw.Over
		if f.BlendOp == apng.BLEND_OP_SOURCE {
			op = draw.Src
		}
		canvas := acc.next(f.Image, image.Pt(f.XOffset, f.YOffset), op, dispose)
		ms := f.GetDelay() * 1000
		s.appendFrame(canvas, math.Round(ms/10), math.Max(ms, minActualDelay))
	}
	return s, nil
}

func decodeWebP(data []byte) (*Surface, error) {
	features, err := webp.GetFeatures(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read webp features: %w", err)
	}
	if !features.HasAnimation {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
		return FromImage(img), nil
	}

	anim, err := animation.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode animated webp: %w", err)
	}
	if err := anim.DecodeFrames(); err != nil {
		return nil, fmt.Errorf("failed to decode animated webp frames: %w", err)
	}

	s := New(float64(anim.CanvasWidth), float64(anim.CanvasHeight), loopsFromPlays(anim.LoopCount))
	dec := animation.NewAnimDecoder(anim)
	for dec.HasNext() {
		canvas, duration, err := dec.NextFrame()
		if err != nil {
			return nil, fmt.Errorf("failed to composite animated webp frame %d: %w", len(s.Frames), err)
		}
		ms := float64(duration.Milliseconds())
		s.appendFrame(canvas, math.Round(ms/10), math.Max(ms, minActualDelay))
	}
	return s, nil
}
