package filter

import (
	"fmt"
	"math"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/raster/stage"
)

const (
	fadeLength = 10
	revealRuns = 5

	// frames are fully silhouetted before this run and fully revealed after it
	fadeRun = 2
)

// PokemonReveal silhouettes the target, then appends revealRuns*fadeLength
// frames replaying the source on a blank canvas while its colours fade in
// from the silhouette during the middle run.
func PokemonReveal(target, source *raster.Surface, x, y float64, opts raster.DrawOptions) (*raster.Surface, error) {
	if err := target.DrawSurface(source, x, y, opts); err != nil {
		return nil, err
	}
	if err := target.Pipeline(stage.Silhouette(silhouette)); err != nil {
		return nil, err
	}

	n := len(source.Frames)
	if n == 0 {
		return target, nil
	}
	if math.IsInf(target.Frames[0].ActualDelay, 1) {
		if err := target.Retime(0, raster.WithDelay(fadeLength)); err != nil {
			return nil, err
		}
	}

	replays := int(math.Ceil(float64(fadeLength) / float64(n)))
	fadeCount := 0
	for run := 0; run < revealRuns; run++ {
		for i := 0; i < fadeLength; i++ {
			sf := source.Frames[i%n]
			timing := raster.WithDelay(fadeLength)
			if n > 1 {
				timing = raster.WithDelay(sf.Delay)
			}
			frame, err := target.AddFrame(timing)
			if err != nil {
				return nil, fmt.Errorf("reveal run %d: %w", run, err)
			}
			if err := raster.Draw(frame.Canvas, sf.Canvas, x, y, opts); err != nil {
				return nil, fmt.Errorf("reveal run %d: %w", run, err)
			}

			var reveal float64
			switch {
			case run > fadeRun:
				reveal = 1
			case run == fadeRun && n == 1:
				reveal = float64(i) / fadeLength
			case run == fadeRun:
				// peaks below 1 (9/12 for three or twelve frames); run 3 completes the reveal
				reveal = float64(fadeCount) / float64(n*replays)
			}
			tint := stage.TintStage{Color: silhouette, Reveal: reveal}
			if err := tint.Process(frame); err != nil {
				return nil, err
			}
			if run == fadeRun {
				fadeCount++
			}
		}
	}
	return target, nil
}
