package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rm-hull/emote-overlays/internal"
	"github.com/rm-hull/emote-overlays/internal/fetch"
	"github.com/rm-hull/emote-overlays/internal/generator"
	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/worker"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

func ApiServer(cfg ServerConfig) {
	internal.Diagnostics()
	if cfg.Debug {
		raster.SetLogger(slog.Default())
	}

	loader := fetch.NewAssetLoader(cfg.maxFetchBytes())
	catalog, err := internal.NewCatalog(context.Background(), cfg.TemplatesPath, loader, cfg.Workers)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.ReloadSchedule != "" {
		c, err := internal.StartReloadCron(catalog, cfg.ReloadSchedule)
		if err != nil {
			log.Fatalf("failed to start template reload: %v", err)
		}
		defer c.Stop()
	}

	sched, err := internal.NewJanitor(cfg.OutputDir, cfg.Retention, max(cfg.Retention/4, time.Minute))
	if err != nil {
		log.Fatal(err)
	}

	metrics, err := worker.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	pool, err := worker.NewPool[*generator.Outcome](cfg.Workers, metrics)
	if err != nil {
		log.Fatal(err)
	}
	pool.StartWorkers()
	defer pool.Shutdown()

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
	)

	if cfg.Debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{&templatesCheck{catalog: catalog}})
	if err != nil {
		log.Fatalf("failed to initialize healthcheck: %v", err)
	}

	remote := fetch.NewRemoteLoader(cfg.maxFetchBytes())
	h := &handlers{
		cfg:       cfg,
		catalog:   catalog,
		loader:    remote,
		generator: generator.New(catalog, remote),
		pool:      pool,
	}
	h.register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting HTTP API Server on port %d...", cfg.Port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP API Server failed to start on port %d: %v", cfg.Port, err)
	}

	err = sched.Shutdown()
	if err != nil {
		log.Fatalf("failed to shutdown scheduler: %v", err)
	}
}

type templatesCheck struct {
	catalog *internal.Catalog
}

func (c *templatesCheck) Pass() bool {
	return len(c.catalog.Names()) > 0
}

func (c *templatesCheck) Name() string {
	return "templates"
}
