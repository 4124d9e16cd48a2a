package template

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/raster/filter"
	"golang.org/x/sync/errgroup"
)

// Axis positions a template layer along one dimension of the base image.
type Axis struct {
	Position Value `json:"position"` // percent of the image size
	Offset   Value `json:"offset"`   // template pixels, scaled with the template
	Size     Value `json:"size"`     // image size the template was designed for
	Absolute bool  `json:"absolute,omitempty"`
}

type Anchor struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// Template is one overlay layer. Image is resolved once at start-up and
// must not be modified afterwards.
type Template struct {
	Src           string             `json:"src,omitempty"`
	Anchor        Anchor             `json:"anchor"`
	Z             float64            `json:"z,omitempty"`
	Filter        string             `json:"filter,omitempty"`
	SrcFilter     string             `json:"srcFilter,omitempty"`
	Attributes    *raster.Attributes `json:"attributes,omitempty"`
	SrcAttributes *raster.Attributes `json:"srcAttributes,omitempty"`

	Image *raster.Surface `json:"-"`
}

func (t *Template) validate() error {
	for _, name := range []string{t.Filter, t.SrcFilter} {
		if name == "" {
			continue
		}
		if _, err := filter.Lookup(name); err != nil {
			return err
		}
	}
	return nil
}

// Layers is the ordered list of templates applied for one command. The
// JSON form may be a single object or an array.
type Layers []*Template

func (l *Layers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []*Template
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var single Template
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = Layers{&single}
	return nil
}

// AssetLoader fetches and decodes a template asset. An empty uri yields an
// effect-only surface.
type AssetLoader interface {
	LoadSurface(ctx context.Context, uri string) (*raster.Surface, error)
}

// Table maps command names to their template layers.
type Table struct {
	templates map[string]Layers
	baseDir   string
}

type config struct {
	Templates map[string]Layers `json:"templates"`
}

// LoadConfig reads a template table from a JSON file. Relative asset
// paths are resolved against the directory of the file.
func LoadConfig(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template config: %w", err)
	}
	table, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	table.baseDir = filepath.Dir(path)
	return table, nil
}

// ParseConfig decodes and validates a template table.
func ParseConfig(data []byte) (*Table, error) {
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse template config: %w", err)
	}
	if len(cfg.Templates) == 0 {
		return nil, fmt.Errorf("template config contains no templates")
	}
	for name, layers := range cfg.Templates {
		if len(layers) == 0 {
			return nil, fmt.Errorf("template %q has no layers", name)
		}
		for i, t := range layers {
			if t == nil {
				return nil, fmt.Errorf("template %q layer %d is empty", name, i)
			}
			if err := t.validate(); err != nil {
				return nil, fmt.Errorf("template %q layer %d: %w", name, i, err)
			}
		}
	}
	return &Table{templates: cfg.Templates}, nil
}

// Lookup returns the layers for a command name.
func (t *Table) Lookup(name string) (Layers, bool) {
	layers, ok := t.templates[name]
	return layers, ok
}

// Names lists the command names in alphabetical order.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.templates))
}

// Resolve loads the asset of every template using up to concurrency
// parallel fetches. It must complete before the table is used to render.
func (t *Table) Resolve(ctx context.Context, loader AssetLoader, concurrency int) error {
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, name := range t.Names() {
		for i, tmpl := range t.templates[name] {
			g.Go(func() error {
				img, err := loader.LoadSurface(ctx, t.assetPath(tmpl.Src))
				if err != nil {
					return fmt.Errorf("template %q layer %d: %w", name, i, err)
				}
				tmpl.Image = img
				return nil
			})
		}
	}
	return g.Wait()
}

func (t *Table) assetPath(src string) string {
	if src == "" || t.baseDir == "" || filepath.IsAbs(src) || strings.Contains(src, "://") {
		return src
	}
	return filepath.Join(t.baseDir, src)
}

// NewTable builds a table from already resolved templates.
func NewTable(templates map[string]Layers) *Table {
	return &Table{templates: templates}
}
