package raster

import "fmt"

// FrameStage is a pixel pass applied to a single frame canvas.
type FrameStage interface {
	Process(f *Frame) error
}

// Pipeline runs the stages, in order, over every frame of s.
func (s *Surface) Pipeline(stages ...FrameStage) error {
	for i, f := range s.Frames {
		for _, stage := range stages {
			if err := stage.Process(f); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *Surface) Clone() *Surface {
	c := *s
	c.Frames = make([]*Frame, len(s.Frames))
	for i, f := range s.Frames {
		cf := *f
		cf.Canvas = cloneNRGBA(f.Canvas)
		c.Frames[i] = &cf
	}
	return &c
}
