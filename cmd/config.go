package cmd

import (
	"time"

	"github.com/rm-hull/emote-overlays/internal/fetch"
	"github.com/rm-hull/emote-overlays/internal/raster"
)

const mebibyte = 1024 * 1024

type ServerConfig struct {
	TemplatesPath  string
	OutputDir      string
	Port           int
	Workers        int
	MaxSizeMB      float64
	Format         string
	Retention      time.Duration
	RenderTimeout  time.Duration
	ReloadSchedule string
	Debug          bool
}

func (cfg ServerConfig) maxBytes(requestedMB float64) int64 {
	mb := cfg.MaxSizeMB
	if requestedMB > 0 && (mb <= 0 || requestedMB < mb) {
		mb = requestedMB
	}
	return int64(mb * mebibyte)
}

func (cfg ServerConfig) maxFetchBytes() int64 {
	return fetch.DefaultMaxBytes
}

func (cfg ServerConfig) format(requested string) (raster.Format, error) {
	if requested == "" {
		requested = cfg.Format
	}
	return raster.ParseFormat(requested)
}
