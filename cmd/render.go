package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rm-hull/emote-overlays/internal"
	"github.com/rm-hull/emote-overlays/internal/fetch"
	"github.com/rm-hull/emote-overlays/internal/generator"
	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/raster/filter"
)

type RenderConfig struct {
	TemplatesPath string
	Base          string
	Text          string
	Output        string
	Format        string
	MaxSizeMB     float64
	Concurrency   int
	Debug         bool
}

// Render applies the commands in cfg.Text to cfg.Base and writes the
// result to cfg.Output, picking the file extension when none is given.
func Render(ctx context.Context, cfg RenderConfig) error {
	if cfg.Debug {
		raster.SetLogger(slog.Default())
	}

	format, err := raster.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	loader := fetch.NewAssetLoader(fetch.DefaultMaxBytes)
	catalog, err := internal.NewCatalog(ctx, cfg.TemplatesPath, loader, cfg.Concurrency)
	if err != nil {
		return err
	}

	outcome, err := generator.New(catalog, loader).Generate(ctx, generator.Request{
		Base:     cfg.Base,
		Text:     cfg.Text,
		MaxBytes: int64(cfg.MaxSizeMB * mebibyte),
		Format:   format,
	})
	if err != nil {
		return err
	}
	if outcome.Notice != "" {
		log.Println(outcome.Notice)
	}

	output := cfg.Output
	if filepath.Ext(output) == "" {
		output = fmt.Sprintf("%s.%s", output, outcome.Extension)
	}
	filename, err := internal.WriteRender(filepath.Dir(output), filepath.Base(output), outcome.Data)
	if err != nil {
		return err
	}

	log.Printf("Wrote %s: %d commands, %d frames, %d bytes in %s",
		filename, outcome.Applied, outcome.Frames, len(outcome.Data), outcome.Elapsed)
	return nil
}

// ListTemplates prints the configured template names followed by the
// built-in filters.
func ListTemplates(templatesPath string) error {
	loader := fetch.NewAssetLoader(fetch.DefaultMaxBytes)
	catalog, err := internal.NewCatalog(context.Background(), templatesPath, loader, 1)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stdout, "Templates: %s\nFilters:   %s\n",
		strings.Join(catalog.Names(), ", "),
		strings.Join(filter.Names(), ", "))
	return err
}
