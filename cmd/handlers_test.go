package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rm-hull/emote-overlays/internal/fetch"
	"github.com/rm-hull/emote-overlays/internal/generator"
	"github.com/rm-hull/emote-overlays/internal/raster"
	"github.com/rm-hull/emote-overlays/internal/template"
	"github.com/rm-hull/emote-overlays/internal/worker"
	"github.com/rm-hull/emote-overlays/models/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	outcome *generator.Outcome
	err     error
	last    generator.Request
}

func (f *fakeRenderer) Generate(_ context.Context, req generator.Request) (*generator.Outcome, error) {
	f.last = req
	return f.outcome, f.err
}

type fakeLoader struct {
	surface *raster.Surface
	err     error
}

func (f *fakeLoader) LoadSurface(_ context.Context, _ string) (*raster.Surface, error) {
	return f.surface, f.err
}

func newTestRouter(t *testing.T, cfg ServerConfig, r *fakeRenderer, l *fakeLoader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	engine := gin.New()
	h := &handlers{
		cfg:       cfg,
		catalog:   template.NewTable(map[string]template.Layers{"bee": nil, "shake": nil}),
		loader:    l,
		generator: r,
	}
	h.register(engine)
	return engine
}

func serve(engine *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestListTemplates(t *testing.T) {
	engine := newTestRouter(t, ServerConfig{}, &fakeRenderer{}, &fakeLoader{})

	w := serve(engine, http.MethodGet, "/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TemplatesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"bee", "shake"}, resp.Templates)
	assert.Contains(t, resp.Filters, "pokemon_reveal")
	assert.Contains(t, resp.Filters, "mirror_x")
}

func TestRenderTemplate(t *testing.T) {
	t.Run("streams the image", func(t *testing.T) {
		r := &fakeRenderer{outcome: &generator.Outcome{Data: []byte("GIF89a"), ContentType: raster.ContentTypeGIF}}
		engine := newTestRouter(t, ServerConfig{MaxSizeMB: 1}, r, &fakeLoader{})

		w := serve(engine, http.MethodGet, "/v1/templates/bee?url=https://example.com/a.png&reverse=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, raster.ContentTypeGIF, w.Header().Get("Content-Type"))
		assert.Equal(t, "GIF89a", w.Body.String())

		assert.Equal(t, "https://example.com/a.png", r.last.Base)
		assert.Equal(t, []generator.Command{{Name: "bee", Flip: true}}, r.last.Commands)
		assert.Equal(t, int64(mebibyte), r.last.MaxBytes)
	})

	t.Run("missing url", func(t *testing.T) {
		engine := newTestRouter(t, ServerConfig{}, &fakeRenderer{}, &fakeLoader{})
		w := serve(engine, http.MethodGet, "/v1/templates/bee", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown template", func(t *testing.T) {
		r := &fakeRenderer{err: fmt.Errorf("%w: wasp", generator.ErrUnknownTemplate)}
		engine := newTestRouter(t, ServerConfig{}, r, &fakeLoader{})

		w := serve(engine, http.MethodGet, "/v1/templates/wasp?url=a.png", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Unknown template", resp.Error)
	})

	t.Run("bad format", func(t *testing.T) {
		engine := newTestRouter(t, ServerConfig{}, &fakeRenderer{}, &fakeLoader{})
		w := serve(engine, http.MethodGet, "/v1/templates/bee?url=a.png&format=tiff", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRender(t *testing.T) {
	t.Run("stores the render", func(t *testing.T) {
		dir := t.TempDir()
		r := &fakeRenderer{outcome: &generator.Outcome{
			Data:        []byte("png-data"),
			ContentType: raster.ContentTypePNG,
			Extension:   "png",
			Frames:      1,
			Applied:     2,
			Notice:      "Only 500 commands can be applied at once.",
		}}
		engine := newTestRouter(t, ServerConfig{OutputDir: dir, MaxSizeMB: 8}, r, &fakeLoader{})

		body, _ := json.Marshal(api.RenderRequest{URL: "a.png", Text: "/bee /shake", Format: "apng", MaxSizeMB: 2})
		w := serve(engine, http.MethodPost, "/v1/render", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.RenderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "/v1/renders/"+resp.ID+".png", resp.File)
		assert.Equal(t, 2, resp.Applied)
		assert.Equal(t, len("png-data"), resp.Bytes)
		require.NotNil(t, resp.Notice)
		assert.Equal(t, "Only 500 commands can be applied at once.", *resp.Notice)

		data, err := os.ReadFile(filepath.Join(dir, resp.ID+".png"))
		require.NoError(t, err)
		assert.Equal(t, []byte("png-data"), data)

		assert.Equal(t, "/bee /shake", r.last.Text)
		assert.Equal(t, raster.FormatAPNG, r.last.Format)
		assert.Equal(t, int64(2*mebibyte), r.last.MaxBytes)

		w = serve(engine, http.MethodGet, resp.File, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		engine := newTestRouter(t, ServerConfig{}, &fakeRenderer{}, &fakeLoader{})
		w := serve(engine, http.MethodPost, "/v1/render", []byte(`{"url": "a.png"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		r := &fakeRenderer{err: &generator.OutputTooLargeError{Size: 3 * mebibyte, Limit: mebibyte}}
		engine := newTestRouter(t, ServerConfig{}, r, &fakeLoader{})

		body, _ := json.Marshal(api.RenderRequest{URL: "a.png", Text: "/bee"})
		w := serve(engine, http.MethodPost, "/v1/render", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Image is too large to send (size: 3MB - limit: 1MB)", resp.Error)
	})

	t.Run("through the worker pool", func(t *testing.T) {
		pool, err := worker.NewPool[*generator.Outcome](1, nil)
		require.NoError(t, err)
		pool.StartWorkers()
		defer pool.Shutdown()

		r := &fakeRenderer{outcome: &generator.Outcome{Data: []byte("x"), Extension: "gif"}}
		h := &handlers{cfg: ServerConfig{}, generator: r, pool: pool}
		outcome, err := h.submit(context.Background(), generator.Request{Text: "/bee"})
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), outcome.Data)
	})
}

func TestDebugFrame(t *testing.T) {
	s := raster.New(4, 4, 0)
	for range 3 {
		_, err := s.AddFrame(raster.WithDelay(5))
		require.NoError(t, err)
	}

	t.Run("disabled by default", func(t *testing.T) {
		engine := newTestRouter(t, ServerConfig{}, &fakeRenderer{}, &fakeLoader{surface: s})
		w := serve(engine, http.MethodGet, "/v1/debug/frame?url=a.gif", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns a frame", func(t *testing.T) {
		engine := newTestRouter(t, ServerConfig{Debug: true}, &fakeRenderer{}, &fakeLoader{surface: s})
		w := serve(engine, http.MethodGet, "/v1/debug/frame?url=a.gif&frame=2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, raster.ContentTypePNG, w.Header().Get("Content-Type"))
		assert.Equal(t, "3", w.Header().Get("X-Frame-Count"))

		img, _, err := image.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	})

	t.Run("out of range", func(t *testing.T) {
		engine := newTestRouter(t, ServerConfig{Debug: true}, &fakeRenderer{}, &fakeLoader{surface: s})
		w := serve(engine, http.MethodGet, "/v1/debug/frame?url=a.gif&frame=3", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestURLsMustBeRemote(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 3, 3))))
	path := filepath.Join(t.TempDir(), "private.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	table := template.NewTable(map[string]template.Layers{
		"ghost": {{Image: raster.EffectOnly(), SrcFilter: "invert_transparency"}},
	})
	loader := fetch.NewRemoteLoader(0)
	engine := gin.New()
	h := &handlers{
		cfg:       ServerConfig{OutputDir: t.TempDir(), Debug: true},
		catalog:   table,
		loader:    loader,
		generator: generator.New(table, loader),
	}
	h.register(engine)

	for _, uri := range []string{path, "file://" + path} {
		t.Run(uri, func(t *testing.T) {
			checkRejected := func(w *httptest.ResponseRecorder) {
				t.Helper()
				require.Equal(t, http.StatusBadRequest, w.Code)
				var resp api.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Could not load image", resp.Error)
			}

			checkRejected(serve(engine, http.MethodGet, "/v1/templates/ghost?url="+url.QueryEscape(uri), nil))
			checkRejected(serve(engine, http.MethodGet, "/v1/debug/frame?url="+url.QueryEscape(uri), nil))

			body, _ := json.Marshal(api.RenderRequest{URL: uri, Text: "/ghost"})
			checkRejected(serve(engine, http.MethodPost, "/v1/render", body))
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid template", &template.InvalidTemplateError{Src: "bee.png", Err: errors.New("boom")}, http.StatusBadRequest},
		{"asset load", &fetch.AssetLoadError{URI: "a.png", Err: errors.New("404")}, http.StatusBadRequest},
		{"too large", &generator.OutputTooLargeError{Size: 2, Limit: 1}, http.StatusRequestEntityTooLarge},
		{"unknown template", generator.ErrUnknownTemplate, http.StatusNotFound},
		{"no commands", generator.ErrNoCommands, http.StatusBadRequest},
		{"animation", fmt.Errorf("layer: %w", raster.ErrIncompatibleAnimation), http.StatusBadRequest},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"closed", worker.ErrPoolClosed, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestServerConfig(t *testing.T) {
	cfg := ServerConfig{MaxSizeMB: 8, Format: "apng"}
	assert.Equal(t, int64(8*mebibyte), cfg.maxBytes(0))
	assert.Equal(t, int64(2*mebibyte), cfg.maxBytes(2))
	assert.Equal(t, int64(8*mebibyte), cfg.maxBytes(20))

	f, err := cfg.format("")
	require.NoError(t, err)
	assert.Equal(t, raster.FormatAPNG, f)
}
