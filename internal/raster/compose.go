package raster

import (
	"fmt"
	"image"
)

// DrawSurface paints every frame of src onto s at (x, y).
//
// An animated src expands s to its frame count and timing, using the
// existing first frame of s (if any) as the background of the new frames;
// s must not already be animated. A still src is stamped onto every frame
// of s, creating a still frame first when s is empty.
func (s *Surface) DrawSurface(src *Surface, x, y float64, opts DrawOptions) error {
	switch n := len(src.Frames); {
	case n > 1:
		return s.drawAnimated(src, x, y, opts)
	case n == 1:
		if len(s.Frames) == 0 {
			if _, err := s.AddFrame(Still); err != nil {
				return err
			}
		}
		for i, f := range s.Frames {
			if err := Draw(f.Canvas, src.Frames[0].Canvas, x, y, opts); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	return nil
}

func (s *Surface) drawAnimated(src *Surface, x, y float64, opts DrawOptions) error {
	if len(s.Frames) > 1 {
		return fmt.Errorf("%w (target=%d frames, source=%d frames)", ErrIncompatibleAnimation, len(s.Frames), len(src.Frames))
	}

	hadBackground := len(s.Frames) == 1
	if hadBackground {
		if err := s.Retime(0, WithDelay(src.Frames[0].Delay)); err != nil {
			return err
		}
	}

	for i := len(s.Frames); i < len(src.Frames); i++ {
		f, err := s.AddFrame(WithDelay(src.Frames[i].Delay))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if hadBackground {
			background := DrawOptions{Width: float64(s.Width), Height: float64(s.Height), NoSmoothing: true}
			if err := Draw(f.Canvas, s.Frames[0].Canvas, 0, 0, background); err != nil {
				return fmt.Errorf("frame %d background: %w", i, err)
			}
		}
	}

	for i, sf := range src.Frames {
		if err := Draw(s.Frames[i].Canvas, sf.Canvas, x, y, opts); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// DrawImage paints a plain image onto every frame of s.
func (s *Surface) DrawImage(img image.Image, x, y float64, opts DrawOptions) error {
	for i, f := range s.Frames {
		if err := Draw(f.Canvas, img, x, y, opts); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// DrawFrame paints frame i of s onto dst.
func (s *Surface) DrawFrame(dst *image.NRGBA, i int, x, y float64, opts DrawOptions) error {
	if i < 0 || i >= len(s.Frames) {
		return fmt.Errorf("frame %d out of range (frames=%d)", i, len(s.Frames))
	}
	return Draw(dst, s.Frames[i].Canvas, x, y, opts)
}
