package generator

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/template"
)

const mebibyte = 1024 * 1024

// OutputTooLargeError means even the first command produced an image over
// the size ceiling.
type OutputTooLargeError struct {
	Size, Limit int64
}

func (e *OutputTooLargeError) Error() string {
	return fmt.Sprintf("Image is too large to send (size: %sMB - limit: %sMB)", megabytes(e.Size), megabytes(e.Limit))
}

// Request describes one render: a base image and the commands to apply.
// Commands take precedence over Text when both are set.
type Request struct {
	Base     string
	Text     string
	Commands []Command
	MaxBytes int64
	Format   raster.Format
}

// Outcome is the encoded result of the last command that fit the ceiling.
type Outcome struct {
	Data        []byte
	ContentType string
	Extension   string
	Frames      int
	Applied     int
	Notice      string
	Elapsed     time.Duration
}

type Generator struct {
	catalog Catalog
	loader  template.AssetLoader
}

func New(catalog Catalog, loader template.AssetLoader) *Generator {
	return &Generator{catalog: catalog, loader: loader}
}

// Generate loads the base image once and applies the commands in order,
// encoding after each one. When an intermediate result exceeds MaxBytes
// the previous result is returned with a notice.
func (g *Generator) Generate(ctx context.Context, req Request) (*Outcome, error) {
	startTime := time.Now()
	cmds, notice := req.Commands, ""
	if len(cmds) == 0 {
		var err error
		if cmds, notice, err = ParseCommands(req.Text, g.catalog); err != nil {
			return nil, err
		}
	}

	var (
		current *raster.Surface
		result  *Outcome
	)
	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layers, ok := g.catalog.Lookup(cmd.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, cmd.Name)
		}

		if current == nil {
			base, err := g.loader.LoadSurface(ctx, req.Base)
			if err != nil {
				return nil, err
			}
			current = base
		}

		next, err := template.RenderChain(layers, current, cmd.Flip)
		if err != nil {
			return nil, err
		}
		current = next

		data, contentType, err := current.Bytes(req.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", cmd, err)
		}
		size := int64(len(data))
		log.Printf("Rendered command %d (%s): %d frames, %sMB", i+1, cmd, len(current.Frames), megabytes(size))

		if req.MaxBytes > 0 && size > req.MaxBytes {
			if result == nil {
				return nil, &OutputTooLargeError{Size: size, Limit: req.MaxBytes}
			}
			notice = fmt.Sprintf("Next image is too large to send (size: %sMB - limit: %sMB), stopped at last layer (%d) before size limit",
				megabytes(size), megabytes(req.MaxBytes), i)
			break
		}

		result = &Outcome{
			Data:        data,
			ContentType: contentType,
			Extension:   extension(contentType),
			Frames:      len(current.Frames),
			Applied:     i + 1,
		}
	}

	result.Notice = notice
	result.Elapsed = time.Since(startTime)
	return result, nil
}

func extension(contentType string) string {
	if contentType == raster.ContentTypeGIF {
		return "gif"
	}
	return "png"
}

func megabytes(n int64) string {
	mb := math.Round(float64(n)/mebibyte*100) / 100
	return strconv.FormatFloat(mb, 'f', -1, 64)
}
