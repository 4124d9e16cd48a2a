package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rm-hull/emote-overlays/internal"
	"github.com/rm-hull/emote-overlays/internal/fetch"
	"github.com/rm-hull/emote-overlays/internal/generator"
	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/raster/filter"
	"github.com/rm-hull/emote-overlays/internal/template"
	"github.com/rm-hull/emote-overlays/internal/worker"
	"github.com/rm-hull/emote-overlays/models/api"
)

type renderer interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Outcome, error)
}

type surfaceLoader interface {
	LoadSurface(ctx context.Context, uri string) (*raster.Surface, error)
}

type handlers struct {
	cfg       ServerConfig
	catalog   generator.Catalog
	loader    surfaceLoader
	generator renderer
	pool      *worker.Pool[*generator.Outcome]
}

func (h *handlers) register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.GET("/templates", h.listTemplates)
	v1.GET("/templates/:name", h.renderTemplate)
	v1.POST("/render", h.render)
	v1.Static("/renders", h.cfg.OutputDir)

	if h.cfg.Debug {
		v1.GET("/debug/frame", h.debugFrame)
	}
}

func (h *handlers) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, api.TemplatesResponse{
		Templates: h.catalog.Names(),
		Filters:   filter.Names(),
	})
}

func (h *handlers) renderTemplate(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		abortWithError(c, http.StatusBadRequest, "Missing url parameter")
		return
	}
	flip, _ := strconv.ParseBool(c.DefaultQuery("reverse", "false"))
	format, err := h.cfg.format(c.Query("format"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	req := generator.Request{
		Base:     url,
		Commands: []generator.Command{{Name: c.Param("name"), Flip: flip}},
		MaxBytes: h.cfg.maxBytes(0),
		Format:   format,
	}
	outcome, err := h.submit(c.Request.Context(), req)
	if err != nil {
		abortWithRenderError(c, err)
		return
	}
	c.Data(http.StatusOK, outcome.ContentType, outcome.Data)
}

func (h *handlers) render(c *gin.Context) {
	var body api.RenderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	format, err := h.cfg.format(body.Format)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	req := generator.Request{
		Base:     body.URL,
		Text:     body.Text,
		MaxBytes: h.cfg.maxBytes(body.MaxSizeMB),
		Format:   format,
	}
	outcome, err := h.submit(c.Request.Context(), req)
	if err != nil {
		abortWithRenderError(c, err)
		return
	}

	id := uuid.NewString()
	name := fmt.Sprintf("%s.%s", id, outcome.Extension)
	if _, err := internal.WriteRender(h.cfg.OutputDir, name, outcome.Data); err != nil {
		log.Printf("failed to store render %s: %v", name, err)
		abortWithError(c, http.StatusInternalServerError, "Could not store image")
		return
	}

	resp := api.RenderResponse{
		ID:          id,
		File:        "/v1/renders/" + name,
		ContentType: outcome.ContentType,
		Frames:      outcome.Frames,
		Bytes:       len(outcome.Data),
		Applied:     outcome.Applied,
		Elapsed:     outcome.Elapsed,
	}
	if outcome.Notice != "" {
		resp.Notice = &outcome.Notice
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) submit(ctx context.Context, req generator.Request) (*generator.Outcome, error) {
	if h.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RenderTimeout)
		defer cancel()
	}
	task := func(ctx context.Context) (*generator.Outcome, error) {
		return h.generator.Generate(ctx, req)
	}
	if h.pool == nil {
		return task(ctx)
	}
	return h.pool.Submit(ctx, task)
}

// debugFrame returns one decoded frame of url as a still PNG.
func (h *handlers) debugFrame(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		abortWithError(c, http.StatusBadRequest, "Missing url parameter")
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("frame", "0"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid frame number")
		return
	}

	s, err := h.loader.LoadSurface(c.Request.Context(), url)
	if err != nil {
		abortWithRenderError(c, err)
		return
	}
	if n < 0 || n >= len(s.Frames) {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Frame %d out of range (frames=%d)", n, len(s.Frames)))
		return
	}

	data, contentType, err := raster.FromImage(s.Frames[n].Canvas).Bytes(raster.FormatAPNG)
	if err != nil {
		abortWithRenderError(c, err)
		return
	}
	c.Header("X-Frame-Count", strconv.Itoa(len(s.Frames)))
	c.Data(http.StatusOK, contentType, data)
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Status: status, Error: message})
}

func abortWithRenderError(c *gin.Context, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("render failed: %v", err)
	}
	abortWithError(c, status, message)
}

func errorStatus(err error) (int, string) {
	var (
		invalid  *template.InvalidTemplateError
		load     *fetch.AssetLoadError
		tooLarge *generator.OutputTooLargeError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, tooLarge.Error()
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "Invalid template"
	case errors.As(err, &load):
		return http.StatusBadRequest, "Could not load image"
	case errors.Is(err, generator.ErrUnknownTemplate):
		return http.StatusNotFound, "Unknown template"
	case errors.Is(err, generator.ErrNoCommands):
		return http.StatusBadRequest, "No commands found"
	case errors.Is(err, raster.ErrIncompatibleAnimation):
		return http.StatusBadRequest, "Cannot combine two animated images"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Render timed out"
	case errors.Is(err, worker.ErrPoolClosed):
		return http.StatusServiceUnavailable, "Server is shutting down"
	}
	return http.StatusInternalServerError, "Error rendering image"
}
