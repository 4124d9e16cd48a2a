package raster

import (
	"fmt"
	"io"
	"math"

	"github.com/kettek/apng"
)

// encodeAPNG writes every frame as a full-canvas APNG frame with its own delay.
func (s *Surface) encodeAPNG(w io.Writer) error {
	a := apng.APNG{
		Frames:    make([]apng.Frame, len(s.Frames)),
		LoopCount: playsFromLoops(s.Loops),
	}

	for i, f := range s.Frames {
		a.Frames[i] = apng.Frame{
			Image:            f.Canvas,
			DelayNumerator:   uint16(gifDelay(f.ActualDelay)),
			DelayDenominator: 100,
			DisposeOp:        apng.DISPOSE_OP_BACKGROUND,
			BlendOp:          apng.BLEND_OP_SOURCE,
		}
	}

	if err := apng.Encode(w, a); err != nil {
		return fmt.Errorf("failed to encode apng: %w", err)
	}
	return nil
}

func playsFromLoops(loops int) uint {
	switch {
	case loops == 0:
		return 0
	case loops < 0:
		return 1
	}
	return uint(math.Min(float64(loops)+1, math.MaxUint16))
}
