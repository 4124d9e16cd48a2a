package internal

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/rm-hull/emote-overlays/internal/template"
)

// Catalog holds the current template table. A reload builds and resolves
// a complete new table before swapping it in, so renders in progress keep
// reading the table they started with.
type Catalog struct {
	path        string
	loader      template.AssetLoader
	concurrency int
	table       atomic.Pointer[template.Table]
}

func NewCatalog(ctx context.Context, path string, loader template.AssetLoader, concurrency int) (*Catalog, error) {
	c := &Catalog{path: path, loader: loader, concurrency: concurrency}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Reload(ctx context.Context) error {
	table, err := template.LoadConfig(c.path)
	if err != nil {
		return err
	}
	if err := table.Resolve(ctx, c.loader, c.concurrency); err != nil {
		return fmt.Errorf("failed to resolve template assets: %w", err)
	}
	c.table.Store(table)
	log.Printf("Loaded %d templates from %s", len(table.Names()), c.path)
	return nil
}

func (c *Catalog) Lookup(name string) (template.Layers, bool) {
	return c.table.Load().Lookup(name)
}

func (c *Catalog) Names() []string {
	return c.table.Load().Names()
}
