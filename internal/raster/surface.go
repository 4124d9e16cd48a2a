package raster

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	ErrMissingTiming         = errors.New("frame delay has to be set")
	ErrIncompatibleAnimation = errors.New("cannot render animations onto animated canvases")
	ErrExportEmpty           = errors.New("no image data to be exported")
)

// minActualDelay is the shortest frame duration (ms) that browsers honour.
const minActualDelay = 20

// Frame is one timed raster of a Surface.
type Frame struct {
	Canvas      *image.NRGBA
	Offset      float64 // cumulative start time (ms), derived
	Delay       float64 // display duration in 10ms ticks
	ActualDelay float64 // display duration in ms, >= 20 or +Inf

	// TransparentIndex is the palette slot used for transparency when the
	// surface is exported as a GIF. Only the first frame's value is read.
	TransparentIndex int
}

// Timing selects the duration of a frame. Build one with WithDelay or
// WithActualDelay; the zero value carries no timing at all.
type Timing struct {
	ticks, actual       float64
	hasTicks, hasActual bool
}

// WithDelay times a frame in 10ms ticks.
func WithDelay(ticks float64) Timing {
	return Timing{ticks: ticks, hasTicks: true}
}

// WithActualDelay times a frame in milliseconds.
func WithActualDelay(ms float64) Timing {
	return Timing{actual: ms, hasActual: true}
}

// Still is the timing of a frame that is shown forever.
var Still = WithActualDelay(math.Inf(1))

func (t Timing) resolve() (delay, actual float64, err error) {
	ticks, ms := t.ticks, t.actual
	hasTicks := t.hasTicks && !math.IsNaN(ticks)
	hasActual := t.hasActual && !math.IsNaN(ms) && ms != 0
	if !hasTicks && !hasActual {
		if t.hasActual || t.hasTicks {
			// an explicit zero or NaN counts as missing
			return 0, 0, fmt.Errorf("%w: delay=%v actualDelay=%v", ErrMissingTiming, t.ticks, t.actual)
		}
		return 0, 0, ErrMissingTiming
	}

	if hasTicks && ticks <= 1 {
		ticks = 10
	}

	if hasTicks {
		delay = ticks
	} else {
		delay = math.Max(math.Round(ms/10), 2)
	}

	if hasActual {
		actual = math.Max(ms, minActualDelay)
	} else {
		actual = math.Max(ticks*10, minActualDelay)
	}
	return delay, actual, nil
}

// Surface is an ordered sequence of timed frames sharing one canvas size.
// A single frame is a still image.
type Surface struct {
	Width  int
	Height int
	Frames []*Frame
	Loops  int // 0 loops forever

	// EffectOnly marks a template that has no image of its own.
	EffectOnly bool
}

// New creates an empty surface; dimensions are rounded to whole pixels.
func New(width, height float64, loops int) *Surface {
	return &Surface{
		Width:  int(math.Round(width)),
		Height: int(math.Round(height)),
		Loops:  loops,
	}
}

// EffectOnly returns the placeholder surface for templates without an asset.
func EffectOnly() *Surface {
	return &Surface{EffectOnly: true}
}

// SetLoops sets the loop count of an exported animation.
func (s *Surface) SetLoops(n int) {
	s.Loops = n
}

// Bounds returns the canvas rectangle shared by all frames.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// TotalDuration is the sum of all frame durations, +Inf for stills.
func (s *Surface) TotalDuration() float64 {
	if len(s.Frames) == 0 {
		return math.Inf(1)
	}
	total := 0.0
	for _, f := range s.Frames {
		total += f.ActualDelay
	}
	return total
}

// AddFrame appends a blank frame with the given timing.
func (s *Surface) AddFrame(t Timing) (*Frame, error) {
	delay, actual, err := t.resolve()
	if err != nil {
		return nil, err
	}
	return s.appendFrame(image.NewNRGBA(s.Bounds()), delay, actual), nil
}

// Retime changes the duration of frame i and shifts the offsets after it.
func (s *Surface) Retime(i int, t Timing) error {
	if i < 0 || i >= len(s.Frames) {
		return fmt.Errorf("frame %d out of range (frames=%d)", i, len(s.Frames))
	}
	delay, actual, err := t.resolve()
	if err != nil {
		return err
	}
	s.Frames[i].Delay = delay
	s.Frames[i].ActualDelay = actual
	s.reflow()
	return nil
}

// appendFrame takes ownership of canvas and appends it with already derived timing.
func (s *Surface) appendFrame(canvas *image.NRGBA, delay, actual float64) *Frame {
	offset := 0.0
	if n := len(s.Frames); n > 0 {
		prev := s.Frames[n-1]
		offset = prev.Offset + prev.ActualDelay
	}
	f := &Frame{
		Canvas:      canvas,
		Offset:      offset,
		Delay:       delay,
		ActualDelay: actual,
	}
	s.Frames = append(s.Frames, f)
	return f
}

func (s *Surface) reflow() {
	offset := 0.0
	for _, f := range s.Frames {
		f.Offset = offset
		offset += f.ActualDelay
	}
}
